package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"spvopt/internal/driver"
	"spvopt/internal/opt"
	"spvopt/internal/trace"
)

// setupTracing attaches a tracer built from the trace flags, falling back
// to the [trace] section, to the command context. It returns a cleanup
// function that flushes and closes the tracer.
func setupTracing(cmd *cobra.Command, s *settings) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if levelStr == "" {
		levelStr = s.cfg.Trace.Level
	}
	explicitMode := modeStr != ""
	if !explicitMode {
		modeStr = s.cfg.Trace.Mode
	}
	if traceOutput == "" && s.cfg.Trace.Level != "off" {
		traceOutput = s.cfg.Trace.Output
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	// without a level, --trace follows modules and a flight recorder keeps passes too
	if level == trace.LevelOff {
		switch {
		case explicitMode && mode != trace.ModeStream:
			level = trace.LevelDetail
		case traceOutput != "":
			level = trace.LevelPhase
		}
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	if traceOutput == "" {
		traceOutput = "-"
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// writeFailedTraces prints the recorded events of every failed module when
// the tracer keeps a flight recorder.
func writeFailedTraces(ctx context.Context, w io.Writer, results []driver.FileResult) error {
	ring := trace.FindRing(trace.FromContext(ctx))
	if ring == nil {
		return nil
	}
	for _, r := range results {
		if r.Status != opt.Failure || r.SpanID == 0 {
			continue
		}
		fmt.Fprintf(w, "trace of %s:\n", r.Path)
		if err := ring.WriteSubtree(w, trace.FormatText, r.SpanID); err != nil {
			return err
		}
	}
	return nil
}
