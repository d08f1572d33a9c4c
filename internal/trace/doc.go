// Package trace records driver, pass and module spans for spvopt.
//
// Enable tracing via command-line flags:
//
//	spvopt run --trace=- --trace-level=phase shader.spv
//
// Tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: flight recorder; the events of a module whose pipeline
//     fails are written once the run ends (--trace-mode=ring)
//   - Fanout: stream and flight recorder together (--trace-mode=both)
//
// Scopes, coarsest first: ScopeDriver (CLI and batch), ScopeModule (one
// input module), ScopePass (one optimizer pass over a module).
//
// Tracers travel through the driver via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "remap-ids", parentID)
//	defer span.End("")
package trace
