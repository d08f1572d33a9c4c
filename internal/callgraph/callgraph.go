// Package callgraph answers which entry points can reach a function.
package callgraph

import (
	"spvopt/internal/defuse"
	"spvopt/internal/spirv"
)

// Analyzer walks OpFunctionCall edges backwards through the def-use index.
// It never mutates the module.
type Analyzer struct {
	module *spirv.Module
	defuse *defuse.Manager
}

// New creates an analyzer over m.
func New(m *spirv.Module, du *defuse.Manager) *Analyzer {
	return &Analyzer{module: m, defuse: du}
}

// IsEntryPoint reports whether an OpEntryPoint names fn.
func (a *Analyzer) IsEntryPoint(fn *spirv.Function) bool {
	if fn == nil {
		return false
	}
	for _, ep := range a.module.EntryPoints() {
		if spirv.EntryPointFunction(ep) == fn.ResultID() {
			return true
		}
	}
	return false
}

// EntryPointsReaching returns the entry-point functions from which fn is
// reachable through calls, fn itself included, in discovery order.
func (a *Analyzer) EntryPointsReaching(fn *spirv.Function) []*spirv.Function {
	if fn == nil {
		return nil
	}
	var result []*spirv.Function
	visited := map[*spirv.Function]struct{}{fn: {}}
	work := []*spirv.Function{fn}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		if a.IsEntryPoint(cur) {
			result = append(result, cur)
		}
		for _, user := range a.defuse.Users(cur.ResultID()) {
			if user.Opcode() != spirv.OpFunctionCall || user.OperandID(0) != cur.ResultID() {
				continue
			}
			caller := user.Function()
			if caller == nil {
				continue
			}
			if _, seen := visited[caller]; seen {
				continue
			}
			visited[caller] = struct{}{}
			work = append(work, caller)
		}
	}
	return result
}
