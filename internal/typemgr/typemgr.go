// Package typemgr finds and creates type declarations.
package typemgr

import (
	"spvopt/internal/defuse"
	"spvopt/internal/spirv"
)

// Manager resolves pointer types over one module and keeps the def-use
// index current for the declarations it adds.
type Manager struct {
	module *spirv.Module
	defuse *defuse.Manager
}

// New creates a type manager.
func New(m *spirv.Module, du *defuse.Manager) *Manager {
	return &Manager{module: m, defuse: du}
}

// PointeeType returns the pointee and storage class of a pointer type.
func (t *Manager) PointeeType(ptrType uint32) (uint32, spirv.StorageClass, bool) {
	def := t.defuse.Def(ptrType)
	if def == nil || def.Opcode() != spirv.OpTypePointer {
		return 0, 0, false
	}
	return def.OperandID(1), def.StorageClass(), true
}

// FindOrCreatePointerType returns the id of an undecorated pointer to
// pointee in storage class sc, declaring one right after the pointee when
// none exists. It fails when pointee is not a declared type or no id is
// left.
func (t *Manager) FindOrCreatePointerType(pointee uint32, sc spirv.StorageClass) (uint32, bool) {
	pointeeDef := t.defuse.Def(pointee)
	if pointeeDef == nil || !spirv.IsTypeOp(pointeeDef.Opcode()) {
		return 0, false
	}
	for _, inst := range t.module.TypesValues() {
		if inst.Opcode() != spirv.OpTypePointer {
			continue
		}
		if inst.StorageClass() == sc && inst.OperandID(1) == pointee && !t.decorated(inst.ResultID()) {
			return inst.ResultID(), true
		}
	}
	id, err := t.module.TakeNextID()
	if err != nil {
		return 0, false
	}
	ptr := spirv.NewInstruction(spirv.OpTypePointer, 0, id,
		spirv.LiteralOperand(uint32(sc)), spirv.IDOperand(pointee))
	if !t.module.InsertGlobalAfter(pointeeDef, ptr) {
		t.module.AddGlobal(ptr)
	}
	if err := t.defuse.Analyze(ptr); err != nil {
		return 0, false
	}
	return id, true
}

func (t *Manager) decorated(id uint32) bool {
	return !t.defuse.WhileEachUser(id, func(u *spirv.Instruction) bool {
		return !spirv.IsDecoration(u.Opcode()) || u.OperandID(0) != id
	})
}
