package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"

	"spvopt/internal/config"
	"spvopt/internal/diag"
	"spvopt/internal/driver"
	"spvopt/internal/opt"
	"spvopt/internal/trace"
)

func TestResolveColor(t *testing.T) {
	tests := []struct {
		flag    string
		tty     bool
		want    bool
		wantErr bool
	}{
		{"on", false, true, false},
		{"off", true, false, false},
		{"auto", true, true, false},
		{"auto", false, false, false},
		{"always", true, false, true},
	}
	for _, tt := range tests {
		got, err := resolveColor(tt.flag, tt.tty)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("resolveColor(%q, %v) = %v, %v", tt.flag, tt.tty, got, err)
		}
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.spv")
	inputs := map[string]bool{watched: true}

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: watched, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: watched, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: watched, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: filepath.Join(dir, "b.spv"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev, inputs); got != tt.want {
			t.Fatalf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []driver.FileResult{
		{Path: "a", Result: driver.Result{Status: opt.Changed}},
		{Path: "b", Result: driver.Result{Status: opt.Changed, Cached: true}},
		{Path: "c", Result: driver.Result{Status: opt.NoChange}},
		{Path: "d", Result: driver.Result{Status: opt.Failure}},
	})
	want := "spvopt: 2 changed, 1 unchanged, 1 failed, 1 from cache\n"
	if buf.String() != want {
		t.Fatalf("summary = %q, want %q", buf.String(), want)
	}
}

func TestPrintDiagnosticsQuietDropsInfo(t *testing.T) {
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	diag.ReportInfo(r, diag.RemapInfo, diag.NoLocation, "remapped 3 ids").Emit()
	diag.ReportWarning(r, diag.RemapCollision, diag.NoLocation, "collision").Emit()

	var buf bytes.Buffer
	o := &runOptions{settings: &settings{quiet: true}, format: "short"}
	if err := printDiagnostics(&buf, bag, "a.spv", o); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "remapped") || !strings.Contains(out, "collision") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestWriteFailedTracesFromRecorder(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.spv")
	if err := os.WriteFile(bad, []byte{1, 2, 3, 4}, 0o600); err != nil {
		t.Fatal(err)
	}
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	results, err := driver.OptimizeFiles(ctx, driver.Request{Files: []string{bad}, Config: config.Default()})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != opt.Failure || results[0].SpanID == 0 {
		t.Fatalf("want a traced failure, got status %v span %d", results[0].Status, results[0].SpanID)
	}
	results = append(results, driver.FileResult{Path: "ok.spv", Result: driver.Result{Status: opt.Changed, SpanID: 1}})

	var buf bytes.Buffer
	if err := writeFailedTraces(ctx, &buf, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "trace of "+bad) || !strings.Contains(out, "status=failure") {
		t.Fatalf("failed module trace missing:\n%s", out)
	}
	if strings.Contains(out, "ok.spv") {
		t.Fatalf("successful module traced:\n%s", out)
	}

	buf.Reset()
	if err := writeFailedTraces(context.Background(), &buf, results); err != nil || buf.Len() != 0 {
		t.Fatalf("no recorder must write nothing, got %q, %v", buf.String(), err)
	}
}
