package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"spvopt/internal/diag"
	"spvopt/internal/diagfmt"
	"spvopt/internal/spirv"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(0)
	loc := diag.Location{Offset: 42, Opcode: spirv.OpVariable, ID: 7}
	bag.Add(diag.NewError(diag.OptTypeResolution, loc, "no Function pointer to %3").
		WithNote(diag.Location{Offset: 12, Opcode: spirv.OpTypeInt, ID: 3}, "pointee declared here"))
	bag.Add(diag.New(diag.SevInfo, diag.OptUnsupportedUse, diag.NoLocation, "variable %7 kept global"))
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, sampleBag(), "shaders/a.spv", diagfmt.PrettyOpts{ShowNotes: true, PathMode: diagfmt.PathModeBasename})
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "a.spv:word 42 OpVariable %7: ERROR OPT1002") {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], "no Function pointer to %3") {
		t.Fatalf("message missing: %q", lines[0])
	}
	if !strings.Contains(lines[1], "note: word 12 OpTypeInt %3: pointee declared here") {
		t.Fatalf("note line wrong: %q", lines[1])
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("colour codes emitted with Color=false")
	}
	// the message column starts at the same width for both severities
	i0 := strings.Index(lines[0], "no Function")
	i2 := strings.Index(lines[2], "variable %7")
	p0 := strings.Index(lines[0], "ERROR")
	p2 := strings.Index(lines[2], "INFO")
	if i0-p0 != i2-p2 {
		t.Fatalf("code column not padded evenly:\n%s", out)
	}
}

func TestPrettyTruncatesAndReportsDropped(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.OptDefUse, diag.NoLocation, strings.Repeat("x", 80)))
	bag.Add(diag.NewError(diag.OptDefUse, diag.NoLocation, "second"))
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, "a.spv", diagfmt.PrettyOpts{Width: 40})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if len(lines[0]) != 40 || !strings.HasSuffix(lines[0], "...") {
		t.Fatalf("line not truncated to width: %q", lines[0])
	}
	if !strings.Contains(lines[1], "1 more diagnostic(s)") {
		t.Fatalf("dropped count missing: %q", lines[1])
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, sampleBag(), "a.spv", diagfmt.JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("count=%d dropped=%d", out.Count, out.Dropped)
	}
	d := out.Diagnostics[0]
	if d.Code != "OPT1002" || d.Location.Opcode != "OpVariable" || d.Location.ID != 7 || d.Location.Offset != 42 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.Notes) != 0 {
		t.Fatalf("notes included without IncludeNotes")
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	diagfmt.Short(&buf, sampleBag(), "a.spv")
	out := buf.String()
	if !strings.Contains(out, "error OPT1002 a.spv:word 42 OpVariable %7 no Function pointer to %3") {
		t.Fatalf("short output:\n%s", out)
	}
}
