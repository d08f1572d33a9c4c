package opt

// Status is the outcome of running a pass.
type Status uint8

const (
	// NoChange means the module was left untouched.
	NoChange Status = iota
	// Changed means the pass rewrote the module.
	Changed
	// Failure means the pass gave up. The module may be partially rewritten.
	Failure
)

func (s Status) String() string {
	switch s {
	case NoChange:
		return "no-change"
	case Changed:
		return "changed"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Combine merges the outcomes of two consecutive passes.
func (s Status) Combine(other Status) Status {
	return max(s, other)
}
