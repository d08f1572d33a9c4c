// Package opt holds the optimizer pass framework and the passes built on the
// def-use index.
package opt

// Pass transforms a module held by a Context. Run reports whether the module
// changed; finer detail goes through the context reporter.
type Pass interface {
	Name() string
	Run(ctx *Context) Status
}
