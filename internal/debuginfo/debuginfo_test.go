package debuginfo_test

import (
	"errors"
	"testing"

	"spvopt/internal/debuginfo"
	"spvopt/internal/defuse"
	"spvopt/internal/spirv"
)

type debugFixture struct {
	m       *spirv.Module
	record  *spirv.Instruction
	local   *spirv.Instruction
	debugFn uint32
	parent  uint32
}

func build(t *testing.T, withDefinition bool) debugFixture {
	t.Helper()
	b := spirv.NewBuilder(spirv.Version1_5)
	set := b.ExtInstImport(debuginfo.SetName)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	u32 := b.TypeInt(32, false)
	ptr := b.TypePointer(spirv.StorageClassFunction, u32)
	zero := b.Constant(u32, 0)
	name := b.DebugString("g")
	src := b.DebugString("shader.hlsl")
	unit := b.ExtInst(void, set, 1, zero, zero, src, zero)
	dbgType := b.ExtInst(void, set, 2, name, zero, zero, zero)
	dbgFn := b.ExtInst(void, set, debuginfo.DebugFunction, name, dbgType, src, zero, zero, unit, name, zero, zero)

	fb := b.Function(void, fnType)
	fb.Block()
	local := fb.Variable(ptr)
	if withDefinition {
		fb.ExtInst(void, set, debuginfo.DebugFunctionDefinition, dbgFn, fb.ID())
	}
	fb.Return()

	// name type source line column parent linkage variable flags
	recID := b.ExtInst(void, set, debuginfo.DebugGlobalVariable,
		name, dbgType, src, zero, zero, unit, name, local, zero)

	m := b.Module()
	var record, localInst *spirv.Instruction
	m.ForEachInst(func(inst *spirv.Instruction) {
		switch inst.ResultID() {
		case recID:
			record = inst
		case local:
			localInst = inst
		}
	})
	return debugFixture{m: m, record: record, local: localInst, debugFn: dbgFn, parent: unit}
}

func TestConvertGlobalToLocal(t *testing.T) {
	for _, withDefn := range []bool{true, false} {
		f := build(t, withDefn)
		du, err := defuse.New(f.m)
		if err != nil {
			t.Fatal(err)
		}
		c := debuginfo.New(f.m, du)
		if !c.IsGlobalVariable(f.record) {
			t.Fatalf("record not recognised")
		}
		if debuginfo.GlobalVariableOf(f.record) != f.local.ResultID() {
			t.Fatalf("GlobalVariableOf wrong")
		}
		cv, err := c.ReserveGlobalToLocal(f.record)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if !c.IsGlobalVariable(f.record) {
			t.Fatalf("reserving rewrote the record")
		}
		if err := c.ConvertGlobalToLocal(cv, f.local); err != nil {
			t.Fatalf("convert: %v", err)
		}
		if !c.IsDebugRecord(f.record, debuginfo.DebugLocalVariable) {
			t.Fatalf("record not rewritten to DebugLocalVariable")
		}
		if f.record.NumOperands() != 9 {
			t.Fatalf("local record has %d operands", f.record.NumOperands())
		}
		wantScope := f.parent
		if withDefn {
			wantScope = f.debugFn
		}
		if got := f.record.OperandID(7); got != wantScope {
			t.Fatalf("scope: got %%%d, want %%%d", got, wantScope)
		}

		entry := f.local.Block()
		insts := entry.Instructions()
		if len(insts) < 2 || insts[0] != f.local {
			t.Fatalf("unexpected entry block layout")
		}
		decl := insts[1]
		if !c.IsDebugRecord(decl, debuginfo.DebugDeclare) {
			t.Fatalf("DebugDeclare not placed after the variable: %v", decl)
		}
		if decl.OperandID(2) != f.record.ResultID() || decl.OperandID(3) != f.local.ResultID() {
			t.Fatalf("DebugDeclare operands wrong: %v", decl)
		}
		expr := du.Def(decl.OperandID(4))
		if expr == nil || !c.IsDebugRecord(expr, debuginfo.DebugExpression) {
			t.Fatalf("DebugDeclare expression missing")
		}
		if du.NumUsers(f.record.ResultID()) != 1 {
			t.Fatalf("DebugDeclare not registered as a user of the record")
		}
	}
}

func TestConvertRejectsOtherRecords(t *testing.T) {
	f := build(t, false)
	du, err := defuse.New(f.m)
	if err != nil {
		t.Fatal(err)
	}
	c := debuginfo.New(f.m, du)
	bound := f.m.Bound()
	if _, err := c.ReserveGlobalToLocal(f.local); !errors.Is(err, debuginfo.ErrNotGlobalVariable) {
		t.Fatalf("expected ErrNotGlobalVariable, got %v", err)
	}
	if f.m.Bound() != bound {
		t.Fatalf("rejected record took ids")
	}
}

func TestReserveSharesNewExpression(t *testing.T) {
	f := build(t, false)
	du, err := defuse.New(f.m)
	if err != nil {
		t.Fatal(err)
	}
	c := debuginfo.New(f.m, du)
	bound := f.m.Bound()
	first, err := c.ReserveGlobalToLocal(f.record)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReserveGlobalToLocal(f.record); err != nil {
		t.Fatal(err)
	}
	// one expression and two declares
	if got := f.m.Bound() - bound; got != 3 {
		t.Fatalf("took %d ids, want 3", got)
	}
	if err := c.ConvertGlobalToLocal(first, f.local); err != nil {
		t.Fatal(err)
	}
	exprs := 0
	for _, inst := range f.m.TypesValues() {
		if c.IsDebugRecord(inst, debuginfo.DebugExpression) {
			exprs++
		}
	}
	if exprs != 1 {
		t.Fatalf("found %d DebugExpression records, want 1", exprs)
	}
}

func TestReserveOutOfIDs(t *testing.T) {
	f := build(t, false)
	du, err := defuse.New(f.m)
	if err != nil {
		t.Fatal(err)
	}
	c := debuginfo.New(f.m, du)
	f.m.SetBound(spirv.MaxIDBound)
	if _, err := c.ReserveGlobalToLocal(f.record); !errors.Is(err, spirv.ErrIDOverflow) {
		t.Fatalf("expected ErrIDOverflow, got %v", err)
	}
	if !c.IsGlobalVariable(f.record) {
		t.Fatalf("record rewritten after a failed reservation")
	}
}
