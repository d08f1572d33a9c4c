// Package driver runs the optimizer pipeline over SPIR-V binaries, one
// module at a time or a batch of files in parallel.
package driver

import (
	"context"
	"fmt"
	"math"
	"time"

	"fortio.org/safecast"

	"spvopt/internal/config"
	"spvopt/internal/diag"
	"spvopt/internal/observ"
	"spvopt/internal/opt"
	"spvopt/internal/spirv"
	"spvopt/internal/trace"
)

// Options tunes one run. The zero value is valid.
type Options struct {
	// Cache, when set, short-circuits repeated runs on the same input.
	Cache *DiskCache
	// Timings appends an ObsTimings diagnostic with per-stage durations.
	Timings bool
	// Path names the input in timing output.
	Path string
	// Sink receives stage events for Path.
	Sink ProgressSink
}

// Result is the outcome of optimizing one module.
type Result struct {
	Status opt.Status
	// Output is the optimized binary. It is the input itself when nothing
	// changed and nil on Failure.
	Output []byte
	Bag    *diag.Bag
	Cached bool
	Timing observ.Report
	// SpanID is the module trace span, 0 when tracing is off or the result
	// came from the cache.
	SpanID uint64
}

// OptimizeModule decodes data, checks its version against the configured
// constraint, runs the pipeline and encodes the result.
func OptimizeModule(ctx context.Context, data []byte, cfg config.Config, opts Options) Result {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	emit := func(stage Stage, status Status, err error, start time.Time) {
		sink.OnEvent(Event{File: opts.Path, Stage: stage, Status: status, Err: err, Elapsed: time.Since(start)})
	}

	bag := diag.NewBag(cfg.Diagnostics.Max)
	res := Result{Status: opt.Failure, Bag: bag}
	if err := ctx.Err(); err != nil {
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, diag.NoLocation, err.Error()).Emit()
		return res
	}

	var key Digest
	if opts.Cache != nil {
		key = cacheKey(data, cfg)
		if hit, ok := fromCache(opts.Cache, key, data, bag); ok {
			emit(StageOptimize, StatusCached, nil, time.Now())
			return hit
		}
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, "optimize", trace.CurrentSpan(ctx).SpanID)
	if opts.Path != "" {
		span.WithExtra("path", opts.Path)
	}
	timer := observ.NewTimer()

	res.Status, res.Output = run(ctx, data, cfg, bag, timer, span.ID(), emit)
	span.WithExtra("status", res.Status.String()).End("")
	res.SpanID = span.ID()
	res.Timing = timer.Report()

	if opts.Timings {
		appendTimingDiagnostic(bag, timingPayload{
			Kind:    "module",
			Path:    opts.Path,
			TotalMS: res.Timing.TotalMS,
			Phases:  res.Timing.Phases,
		})
	}
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, toPayload(res)); err != nil {
			diag.ReportWarning(diag.BagReporter{Bag: bag}, diag.IOCacheError, diag.NoLocation,
				fmt.Sprintf("cache write failed: %v", err)).Emit()
		}
	}
	return res
}

func run(ctx context.Context, data []byte, cfg config.Config, bag *diag.Bag, timer *observ.Timer,
	parent uint64, emit func(Stage, Status, error, time.Time)) (opt.Status, []byte) {
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	start := time.Now()
	idx := timer.Begin(string(StageDecode))
	emit(StageDecode, StatusWorking, nil, start)
	m, err := spirv.Decode(data)
	timer.End(idx, "")
	if err != nil {
		diag.ReportError(reporter, diag.IODecodeError, diag.NoLocation, err.Error()).Emit()
		emit(StageDecode, StatusError, err, start)
		return opt.Failure, nil
	}

	con, err := cfg.VersionConstraint()
	if err != nil {
		diag.ReportError(reporter, diag.CfgInvalid, diag.NoLocation, err.Error()).Emit()
		return opt.Failure, nil
	}
	if v := m.Version(); !v.Satisfies(con) {
		diag.ReportError(reporter, diag.CfgVersionRejects, diag.NoLocation,
			fmt.Sprintf("SPIR-V %s does not satisfy %q", v, cfg.Input.Versions)).Emit()
		return opt.Failure, nil
	}

	mgr, err := opt.Build(cfg.Pipeline.Passes, opt.Options{Lenient: cfg.Remap.Lenient})
	if err != nil {
		diag.ReportError(reporter, diag.CfgUnknownPass, diag.NoLocation, err.Error()).Emit()
		return opt.Failure, nil
	}

	start = time.Now()
	emit(StageOptimize, StatusWorking, nil, start)
	octx := opt.NewContext(m, opt.WithReporter(reporter), opt.WithTracer(trace.FromContext(ctx), parent))
	status := mgr.Run(octx)
	for _, p := range mgr.Timer().Phases() {
		timer.Record(p)
	}
	if status == opt.Failure {
		emit(StageOptimize, StatusError, nil, start)
		return status, nil
	}
	if status == opt.NoChange {
		emit(StageOptimize, StatusDone, nil, start)
		return status, data
	}

	start = time.Now()
	idx = timer.Begin(string(StageEncode))
	out, err := m.Encode()
	timer.End(idx, "")
	if err != nil {
		diag.ReportError(reporter, diag.IOEncodeError, diag.NoLocation, err.Error()).Emit()
		emit(StageEncode, StatusError, err, start)
		return opt.Failure, nil
	}
	emit(StageEncode, StatusDone, nil, start)
	return status, out
}

func fromCache(c *DiskCache, key Digest, input []byte, bag *diag.Bag) (Result, bool) {
	var payload CachePayload
	ok, err := c.Get(key, &payload)
	if err != nil {
		diag.ReportWarning(diag.BagReporter{Bag: bag}, diag.IOCacheError, diag.NoLocation,
			fmt.Sprintf("cache read failed: %v", err)).Emit()
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	for _, d := range payload.Diagnostics {
		bag.Add(d)
	}
	bag.NoteDropped(int(payload.Dropped))
	res := Result{Status: opt.Status(payload.Status), Bag: bag, Cached: true}
	switch res.Status {
	case opt.NoChange:
		res.Output = input
	case opt.Changed:
		res.Output = payload.Output
	}
	return res, true
}

func toPayload(res Result) *CachePayload {
	dropped, err := safecast.Conv[uint32](res.Bag.Dropped())
	if err != nil {
		dropped = math.MaxUint32
	}
	p := &CachePayload{
		Status:  uint8(res.Status),
		Dropped: dropped,
	}
	if res.Status == opt.Changed {
		p.Output = res.Output
	}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings || d.Code == diag.IOCacheError {
			continue
		}
		p.Diagnostics = append(p.Diagnostics, d)
	}
	return p
}
