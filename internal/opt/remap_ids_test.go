package opt_test

import (
	"slices"
	"testing"

	"spvopt/internal/diag"
	"spvopt/internal/opt"
	"spvopt/internal/spirv"
)

// scalars declares a float and a signed int, optionally after burning ids
// and in reverse order.
func scalars(skip int, intFirst bool) (m *spirv.Module, float, sint uint32) {
	b := spirv.NewBuilder(spirv.Version1_0)
	for range skip {
		b.AllocID()
	}
	if intFirst {
		sint = b.TypeInt(32, true)
		float = b.TypeFloat(32)
	} else {
		float = b.TypeFloat(32)
		sint = b.TypeInt(32, true)
	}
	return b.Module(), float, sint
}

func resultOf(m *spirv.Module, op spirv.Op) uint32 {
	var id uint32
	m.ForEachInst(func(inst *spirv.Instruction) {
		if inst.Opcode() == op {
			id = inst.ResultID()
		}
	})
	return id
}

func TestRemapIDsIsOrderIndependent(t *testing.T) {
	tests := []struct {
		name     string
		skip     int
		intFirst bool
	}{
		{"declaration order", 0, false},
		{"reversed with gaps", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := scalars(tt.skip, tt.intFirst)
			if st := (opt.RemapIDs{}).Run(opt.NewContext(m)); st != opt.Changed {
				t.Fatalf("status = %v, want changed", st)
			}
			if got := resultOf(m, spirv.OpTypeFloat); got != 13 {
				t.Fatalf("float got %%%d, want %%13", got)
			}
			if got := resultOf(m, spirv.OpTypeInt); got != 12 {
				t.Fatalf("int got %%%d, want %%12", got)
			}
			if m.Bound() != 14 {
				t.Fatalf("bound = %d, want 14", m.Bound())
			}
		})
	}
}

func TestRemapIDsSameOrderGivesSameWords(t *testing.T) {
	a, _, _ := scalars(0, false)
	b, _, _ := scalars(9, false)
	for _, m := range []*spirv.Module{a, b} {
		if st := (opt.RemapIDs{}).Run(opt.NewContext(m)); st == opt.Failure {
			t.Fatalf("remap failed")
		}
	}
	wa, err := a.Words()
	if err != nil {
		t.Fatal(err)
	}
	wb, err := b.Words()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(wa, wb) {
		t.Fatalf("modules differ after remapping")
	}
}

func TestRemapIDsKeepsModuleConsistent(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_4)
	bag := diag.NewBag(0)
	ctx := opt.NewContext(f.m, opt.WithReporter(diag.BagReporter{Bag: bag}))
	if st := (opt.RemapIDs{}).Run(ctx); st != opt.Changed {
		t.Fatalf("status = %v, want changed; diagnostics: %v", st, bag.Items())
	}
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}

	defined := make(map[uint32]bool)
	f.m.ForEachInst(func(inst *spirv.Instruction) {
		id := inst.ResultID()
		if id == 0 {
			return
		}
		if defined[id] {
			t.Fatalf("%%%d defined twice", id)
		}
		defined[id] = true
	})
	f.m.ForEachInst(func(inst *spirv.Instruction) {
		inst.ForEachID(func(p *uint32) {
			if !defined[*p] {
				t.Fatalf("%v references undefined %%%d", inst, *p)
			}
		})
	})
	if f.m.Bound() != f.m.ComputeIDBound() {
		t.Fatalf("bound %d, computed %d", f.m.Bound(), f.m.ComputeIDBound())
	}
	if st := (opt.RemapIDs{}).Run(opt.NewContext(f.m)); st != opt.NoChange {
		t.Fatalf("second run = %v, want no-change", st)
	}
}

func TestRemapIDsPlacesNamedIDsByName(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	fn := b.Function(void, fnType)
	fn.Block()
	fn.Return()
	b.Name(fn.ID(), "main")
	b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main")
	m := b.Module()

	if st := (opt.RemapIDs{}).Run(opt.NewContext(m)); st != opt.Changed {
		t.Fatalf("status = %v, want changed", st)
	}
	h := uint32(1911)
	for _, c := range []byte("main") {
		h = h*1009 + uint32(c)
	}
	want := h%3011 + 3019
	if got := fn.Function().ResultID(); got != want {
		t.Fatalf("function got %%%d, want %%%d", got, want)
	}
	if got := resultOf(m, spirv.OpTypeVoid); got != 8 {
		t.Fatalf("void got %%%d, want %%8", got)
	}
	if m.EntryPoints()[0].OperandID(1) != want {
		t.Fatalf("entry point not updated")
	}
}

func TestRemapIDsMalformedName(t *testing.T) {
	tests := []struct {
		name    string
		lenient bool
		want    opt.Status
		sev     diag.Severity
	}{
		{"strict", false, opt.Failure, diag.SevError},
		{"lenient", true, opt.Changed, diag.SevWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := scalars(0, false)
			m.Add(spirv.NewInstruction(spirv.OpName, 0, 0,
				spirv.IDOperand(999), spirv.StringOperand("ghost")))
			bag := diag.NewBag(0)
			ctx := opt.NewContext(m, opt.WithReporter(diag.BagReporter{Bag: bag}))
			if st := (opt.RemapIDs{Lenient: tt.lenient}).Run(ctx); st != tt.want {
				t.Fatalf("status = %v, want %v", st, tt.want)
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == diag.RemapMalformedID && d.Severity == tt.sev {
					found = true
				}
			}
			if !found {
				t.Fatalf("no %v malformed-id diagnostic: %v", tt.sev, bag.Items())
			}
		})
	}
}

func TestRemapIDsLenientKeepsStrayIDsClaimed(t *testing.T) {
	// float hashes to %13, where an int sits above the bound
	m, float, sint := scalars(11, false)
	if float != 12 || sint != 13 {
		t.Fatalf("fixture ids float %%%d int %%%d", float, sint)
	}
	m.SetBound(13)

	bag := diag.NewBag(0)
	ctx := opt.NewContext(m, opt.WithReporter(diag.BagReporter{Bag: bag}))
	if st := (opt.RemapIDs{Lenient: true}).Run(ctx); st != opt.Changed {
		t.Fatalf("status = %v, want changed; diagnostics: %v", st, bag.Items())
	}
	if bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("want only warnings: %v", bag.Items())
	}
	if got := resultOf(m, spirv.OpTypeInt); got != 13 {
		t.Fatalf("stray int moved to %%%d", got)
	}
	if got := resultOf(m, spirv.OpTypeFloat); got != 14 {
		t.Fatalf("float got %%%d, want %%14", got)
	}
	if m.Bound() != 15 {
		t.Fatalf("bound = %d, want 15", m.Bound())
	}
}
