package opt

import (
	"fmt"

	"spvopt/internal/callgraph"
	"spvopt/internal/debuginfo"
	"spvopt/internal/defuse"
	"spvopt/internal/diag"
	"spvopt/internal/spirv"
	"spvopt/internal/trace"
	"spvopt/internal/typemgr"
)

// TypeResolver is the type manager contract the passes rely on.
type TypeResolver interface {
	FindOrCreatePointerType(pointee uint32, sc spirv.StorageClass) (uint32, bool)
	PointeeType(ptrType uint32) (uint32, spirv.StorageClass, bool)
}

// DebugConverter is the debug-info contract the passes rely on.
type DebugConverter interface {
	IsGlobalVariable(inst *spirv.Instruction) bool
	ReserveGlobalToLocal(record *spirv.Instruction) (*debuginfo.Conversion, error)
	ConvertGlobalToLocal(cv *debuginfo.Conversion, variable *spirv.Instruction) error
}

// Features caches the capabilities a module declares.
type Features struct {
	capabilities map[spirv.Capability]struct{}
}

func newFeatures(m *spirv.Module) *Features {
	f := &Features{
		capabilities: make(map[spirv.Capability]struct{}),
	}
	for _, inst := range m.Capabilities() {
		f.capabilities[spirv.Capability(inst.Word(0))] = struct{}{}
	}
	return f
}

// HasCapability reports whether the module declares c.
func (f *Features) HasCapability(c spirv.Capability) bool {
	_, ok := f.capabilities[c]
	return ok
}

// Context owns one module and the analyses built over it. Analyses are built
// lazily and kept current by the passes that mutate the module.
type Context struct {
	module   *spirv.Module
	defuse   *defuse.Manager
	calls    *callgraph.Analyzer
	types    TypeResolver
	debug    DebugConverter
	features *Features
	reporter diag.Reporter
	tracer   trace.Tracer
	span     uint64
}

// Option configures a Context.
type Option func(*Context)

// WithReporter sets the diagnostic sink. The default drops everything.
func WithReporter(r diag.Reporter) Option {
	return func(c *Context) { c.reporter = r }
}

// WithTracer sets the tracer and the span pass spans are parented to.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(c *Context) {
		c.tracer = t
		c.span = parent
	}
}

// WithTypeResolver replaces the type manager.
func WithTypeResolver(t TypeResolver) Option {
	return func(c *Context) { c.types = t }
}

// WithDebugConverter replaces the debug-info manager.
func WithDebugConverter(d DebugConverter) Option {
	return func(c *Context) { c.debug = d }
}

// NewContext wraps m.
func NewContext(m *spirv.Module, opts ...Option) *Context {
	c := &Context{
		module:   m,
		reporter: diag.NopReporter{},
		tracer:   trace.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = diag.NopReporter{}
	}
	if c.tracer == nil {
		c.tracer = trace.Nop
	}
	return c
}

// Module returns the module being optimized.
func (c *Context) Module() *spirv.Module { return c.module }

// Reporter returns the diagnostic sink.
func (c *Context) Reporter() diag.Reporter { return c.reporter }

// Tracer returns the tracer.
func (c *Context) Tracer() trace.Tracer { return c.tracer }

// DefUse returns the def-use index, building it on first use.
func (c *Context) DefUse() (*defuse.Manager, error) {
	if c.defuse != nil {
		return c.defuse, nil
	}
	du, err := defuse.New(c.module)
	if err != nil {
		return nil, fmt.Errorf("build def-use index: %w", err)
	}
	c.defuse = du
	return du, nil
}

// Calls returns the call reachability analyzer. DefUse must have succeeded.
func (c *Context) Calls() *callgraph.Analyzer {
	if c.calls == nil {
		c.calls = callgraph.New(c.module, c.mustDefUse())
	}
	return c.calls
}

// Types returns the type resolver. DefUse must have succeeded.
func (c *Context) Types() TypeResolver {
	if c.types == nil {
		c.types = typemgr.New(c.module, c.mustDefUse())
	}
	return c.types
}

// Debug returns the debug-info converter. DefUse must have succeeded.
func (c *Context) Debug() DebugConverter {
	if c.debug == nil {
		c.debug = debuginfo.New(c.module, c.mustDefUse())
	}
	return c.debug
}

// Features returns the capability cache.
func (c *Context) Features() *Features {
	if c.features == nil {
		c.features = newFeatures(c.module)
	}
	return c.features
}

// InvalidateFeatures drops the capability cache.
func (c *Context) InvalidateFeatures() { c.features = nil }

func (c *Context) mustDefUse() *defuse.Manager {
	if c.defuse == nil {
		panic("opt: analysis requested before the def-use index was built")
	}
	return c.defuse
}

// defUseOrFail builds the index and reports a failure to do so.
func (c *Context) defUseOrFail() (*defuse.Manager, bool) {
	du, err := c.DefUse()
	if err != nil {
		diag.ReportError(c.reporter, diag.OptDefUse, diag.NoLocation, err.Error()).Emit()
		return nil, false
	}
	return du, true
}
