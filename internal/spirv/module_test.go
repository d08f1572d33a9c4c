package spirv_test

import (
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"

	"spvopt/internal/spirv"
)

func TestAttachOwnedInstructionPanics(t *testing.T) {
	m := buildCompute(t)
	entry := m.Functions()[0].EntryBlock()
	inst := entry.Instructions()[0]
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when re-attaching an owned instruction")
		}
	}()
	entry.Append(inst)
}

func TestMoveInstructionBetweenContainers(t *testing.T) {
	m := buildCompute(t)
	var global *spirv.Instruction
	for _, inst := range m.TypesValues() {
		if inst.Opcode() == spirv.OpVariable {
			global = inst
		}
	}
	if !m.RemoveGlobal(global) {
		t.Fatalf("RemoveGlobal failed")
	}
	if global.Attached() {
		t.Fatalf("removed instruction still attached")
	}
	entry := m.Functions()[0].EntryBlock()
	entry.InsertFront(global)
	if global.Block() != entry || global.Function() != m.Functions()[0] {
		t.Fatalf("ownership not updated")
	}
	if entry.Instructions()[0] != global {
		t.Fatalf("InsertFront did not place the instruction first")
	}
}

func TestComputeIDBoundAndTakeNextID(t *testing.T) {
	m := buildCompute(t)
	want := m.Bound()
	m.SetBound(1000)
	if got := m.ComputeIDBound(); got != want {
		t.Fatalf("ComputeIDBound: got %d, want %d", got, want)
	}
	id, err := m.TakeNextID()
	if err != nil || id != 1000 || m.Bound() != 1001 {
		t.Fatalf("TakeNextID: id=%d bound=%d err=%v", id, m.Bound(), err)
	}
	m.SetBound(spirv.MaxIDBound)
	if _, err := m.TakeNextID(); !errors.Is(err, spirv.ErrIDOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestReplaceIDTouchesTypeAndOperands(t *testing.T) {
	inst := spirv.NewInstruction(spirv.OpAccessChain, 4, 9, spirv.IDOperand(4), spirv.IDOperand(5))
	if !inst.ReplaceID(4, 40) {
		t.Fatalf("expected change")
	}
	if inst.TypeID() != 40 || inst.OperandID(0) != 40 || inst.OperandID(1) != 5 {
		t.Fatalf("unexpected rewrite: %v", inst)
	}
	if inst.ResultID() != 9 {
		t.Fatalf("result id must not change")
	}
	clone := inst.Clone()
	clone.SetOperand(1, spirv.IDOperand(6))
	if inst.OperandID(1) != 5 {
		t.Fatalf("clone shares operand storage")
	}
}

func TestHasCapabilityAndVersion(t *testing.T) {
	m := buildCompute(t)
	if !m.HasCapability(spirv.CapabilityShader) || m.HasCapability(spirv.CapabilityAddresses) {
		t.Fatalf("capability lookup wrong")
	}
	if !m.Version().RequiresInterfaceListing() || spirv.Version1_3.RequiresInterfaceListing() {
		t.Fatalf("interface listing threshold wrong")
	}
	c, err := semver.NewConstraint(">= 1.3, < 1.6")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Version().Satisfies(c) || spirv.Version1_6.Satisfies(c) {
		t.Fatalf("constraint check wrong")
	}
	v, err := spirv.ParseVersion("1.5")
	if err != nil || v != spirv.Version1_5 {
		t.Fatalf("ParseVersion: %v %v", v, err)
	}
	if _, err := spirv.ParseVersion("1.5.2"); err == nil {
		t.Fatalf("expected error for patch level")
	}
}
