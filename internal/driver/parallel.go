package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"spvopt/internal/config"
	"spvopt/internal/diag"
	"spvopt/internal/opt"
	"spvopt/internal/trace"
)

// Request describes a batch run.
type Request struct {
	Files  []string
	Config config.Config
	// Jobs bounds the number of files in flight. Non-positive means GOMAXPROCS.
	Jobs int
	// Output is the destination of a single-file batch.
	Output string
	// OutDir receives every output under its input base name.
	OutDir string
	Cache  *DiskCache
	// Timings appends timing diagnostics per file.
	Timings bool
	Sink    ProgressSink
}

// FileResult is the outcome for one input of a batch.
type FileResult struct {
	Path string
	// OutPath is where the output was written, empty when nothing was.
	OutPath string
	Result
}

// CombinedStatus combines the statuses of every file.
func CombinedStatus(results []FileResult) opt.Status {
	st := opt.NoChange
	for _, r := range results {
		st = st.Combine(r.Status)
	}
	return st
}

// outputPath returns the destination of path, or "" when outputs are not
// written.
func (r *Request) outputPath(path string) string {
	switch {
	case r.Output != "":
		return r.Output
	case r.OutDir != "":
		return filepath.Join(r.OutDir, filepath.Base(path))
	}
	return ""
}

// OptimizeFiles optimizes every file of req in parallel. Results keep the
// order of req.Files. Per-file problems are reported in each file's bag; the
// error is non-nil only when ctx is cancelled or the request is unusable.
func OptimizeFiles(ctx context.Context, req Request) ([]FileResult, error) {
	if req.Output != "" && len(req.Files) > 1 {
		return nil, fmt.Errorf("a single output path needs exactly one input, got %d", len(req.Files))
	}
	if req.OutDir != "" {
		if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
			return nil, err
		}
	}
	sink := req.Sink
	if sink == nil {
		sink = nopSink{}
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "optimize_files", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	for _, path := range req.Files {
		sink.OnEvent(Event{File: path, Stage: StageRead, Status: StatusQueued})
	}

	// each goroutine writes only its own index
	results := make([]FileResult, len(req.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Files))))

	for i, path := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = optimizeFile(gctx, &req, path, sink)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func optimizeFile(ctx context.Context, req *Request, path string, sink ProgressSink) FileResult {
	fr := FileResult{Path: path}
	start := time.Now()

	sink.OnEvent(Event{File: path, Stage: StageRead, Status: StatusWorking})
	data, err := os.ReadFile(path)
	if err != nil {
		bag := diag.NewBag(req.Config.Diagnostics.Max)
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, diag.NoLocation,
			"failed to load file: "+err.Error()).Emit()
		fr.Result = Result{Status: opt.Failure, Bag: bag}
		sink.OnEvent(Event{File: path, Stage: StageRead, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return fr
	}

	fr.Result = OptimizeModule(ctx, data, req.Config, Options{
		Cache:   req.Cache,
		Timings: req.Timings,
		Path:    path,
		Sink:    sink,
	})
	if fr.Status == opt.Failure {
		sink.OnEvent(Event{File: path, Stage: StageOptimize, Status: StatusError, Elapsed: time.Since(start)})
		return fr
	}

	if out := req.outputPath(path); out != "" {
		if err := os.WriteFile(out, fr.Output, 0o644); err != nil {
			diag.ReportError(diag.BagReporter{Bag: fr.Bag}, diag.IOWriteError, diag.NoLocation,
				"failed to write output: "+err.Error()).Emit()
			fr.Status = opt.Failure
			sink.OnEvent(Event{File: path, Stage: StageWrite, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			return fr
		}
		fr.OutPath = out
	}
	final := StatusDone
	if fr.Cached {
		final = StatusCached
	}
	sink.OnEvent(Event{File: path, Stage: StageWrite, Status: final, Elapsed: time.Since(start)})
	return fr
}
