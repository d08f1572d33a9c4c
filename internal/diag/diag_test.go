package diag

import (
	"testing"

	"spvopt/internal/spirv"
)

func TestFormatShortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     RemapCollision,
			Message:  "collision",
			Primary:  Location{Offset: 40, Opcode: spirv.OpName},
		},
		{
			Severity: SevInfo,
			Code:     OptUnsupportedUse,
			Message:  "first line\nsecond",
			Primary:  Location{Offset: 12, Opcode: spirv.OpVariable, ID: 5},
			Notes: []Note{
				{Loc: Location{Offset: 30, Opcode: spirv.OpCopyMemory}, Msg: "used here"},
			},
		},
	}

	expected := "info OPT1001 shaders/a.spv:word 12 OpVariable %5 first line second\n" +
		"note OPT1001 shaders/a.spv:word 30 OpCopyMemory used here\n" +
		"warning RMP2002 shaders/a.spv:word 40 OpName collision"

	if got := FormatShortDiagnostics(diags, "./shaders/a.spv", true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitSortAndFilter(t *testing.T) {
	bag := NewBag(3)
	r := BagReporter{Bag: bag}
	r.Report(OptUnsupportedUse, SevInfo, Location{Offset: 20}, "b", nil)
	r.Report(OptTypeResolution, SevError, Location{Offset: 10}, "a", nil)
	r.Report(OptUnsupportedUse, SevWarning, Location{Offset: 15}, "c", nil)
	r.Report(OptUnsupportedUse, SevInfo, Location{Offset: 30}, "dropped", nil)

	if bag.Len() != 3 || bag.Dropped() != 1 {
		t.Fatalf("limit not applied: len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
	bag.Sort()
	if bag.Items()[0].Code != OptTypeResolution {
		t.Fatalf("sort by offset failed: %v", bag.Items())
	}
	if !bag.HasErrors() {
		t.Fatalf("expected errors")
	}
	bag.Filter(SevError)
	if bag.Len() != 1 {
		t.Fatalf("filter failed: %d", bag.Len())
	}
}

func TestDedupReporterAndBuilder(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		ReportWarning(r, RemapMalformedID, Location{Offset: 7, ID: 99}, "bad target").
			WithNote(NoLocation, "skipped").
			Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("duplicates forwarded: %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != SevWarning || len(d.Notes) != 1 || d.Notes[0].Loc.String() != "module" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}

	b := ReportError(NopReporter{}, OptIDOverflow, NoLocation, "x")
	b.Emit()
	b.Emit()
	if b.Diagnostic().Code.ID() != "OPT1005" {
		t.Fatalf("unexpected code id %s", b.Diagnostic().Code.ID())
	}
}
