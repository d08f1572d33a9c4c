package opt

import (
	"fmt"

	"spvopt/internal/diag"
	"spvopt/internal/observ"
	"spvopt/internal/trace"
)

// Manager runs passes strictly one after another.
type Manager struct {
	passes []Pass
	timer  *observ.Timer
}

// NewManager creates a manager running passes in order.
func NewManager(passes ...Pass) *Manager {
	return &Manager{passes: passes, timer: observ.NewTimer()}
}

// Add appends a pass.
func (m *Manager) Add(p Pass) { m.passes = append(m.passes, p) }

// Passes returns the scheduled passes.
func (m *Manager) Passes() []Pass { return m.passes }

// Names returns the scheduled pass names.
func (m *Manager) Names() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Timer returns the per-pass timings of the runs so far.
func (m *Manager) Timer() *observ.Timer { return m.timer }

// Run executes every pass on ctx and stops at the first Failure.
func (m *Manager) Run(ctx *Context) Status {
	status := NoChange
	for _, p := range m.passes {
		span := trace.Begin(ctx.Tracer(), trace.ScopePass, p.Name(), ctx.span)
		idx := m.timer.Begin(p.Name())

		st := p.Run(ctx)

		m.timer.End(idx, st.String())
		span.WithExtra("status", st.String()).End("")
		status = status.Combine(st)
		if st == Failure {
			diag.ReportError(ctx.Reporter(), diag.OptPassFailed, diag.NoLocation,
				fmt.Sprintf("pass %s failed", p.Name())).Emit()
			break
		}
	}
	return status
}
