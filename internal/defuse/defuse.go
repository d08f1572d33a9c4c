// Package defuse indexes which instruction defines each id and which
// instructions use it.
//
// The index is not updated implicitly. Code that mutates the operands of a
// registered instruction must go through Edit, or call Forget before and
// RecordUse after the change.
package defuse

import (
	"errors"
	"fmt"
	"slices"

	"spvopt/internal/spirv"
)

// ErrDoubleDefinition is returned when two instructions define the same id.
var ErrDoubleDefinition = errors.New("id defined twice")

// Manager is the def-use index of one module.
type Manager struct {
	defs  map[uint32]*spirv.Instruction
	users map[uint32][]*spirv.Instruction
	// uses lists the distinct ids an instruction is registered under.
	uses map[*spirv.Instruction][]uint32
}

// New indexes every instruction of m.
func New(m *spirv.Module) (*Manager, error) {
	mgr := &Manager{
		defs:  make(map[uint32]*spirv.Instruction),
		users: make(map[uint32][]*spirv.Instruction),
		uses:  make(map[*spirv.Instruction][]uint32),
	}
	var errs []error
	m.ForEachInst(func(inst *spirv.Instruction) {
		if err := mgr.Analyze(inst); err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return mgr, nil
}

// RecordDefinition registers inst as the definer of its result id.
func (m *Manager) RecordDefinition(inst *spirv.Instruction) error {
	id := inst.ResultID()
	if id == 0 {
		return nil
	}
	if prev, ok := m.defs[id]; ok && prev != inst {
		return fmt.Errorf("%%%d: %w (%s and %s)", id, ErrDoubleDefinition, prev.Opcode(), inst.Opcode())
	}
	m.defs[id] = inst
	return nil
}

// RecordUse registers inst as a user of its result type and of every id
// in-operand. Each id is recorded once per instruction.
func (m *Manager) RecordUse(inst *spirv.Instruction) {
	seen := m.uses[inst]
	inst.ForEachID(func(p *uint32) {
		id := *p
		if id == 0 || slices.Contains(seen, id) {
			return
		}
		seen = append(seen, id)
		m.users[id] = append(m.users[id], inst)
	})
	if len(seen) > 0 {
		m.uses[inst] = seen
	}
}

// Analyze is RecordDefinition followed by RecordUse.
func (m *Manager) Analyze(inst *spirv.Instruction) error {
	if err := m.RecordDefinition(inst); err != nil {
		return err
	}
	m.RecordUse(inst)
	return nil
}

// Forget removes inst from every user set. The definition stays.
func (m *Manager) Forget(inst *spirv.Instruction) {
	for _, id := range m.uses[inst] {
		list := m.users[id]
		if idx := slices.Index(list, inst); idx >= 0 {
			list = slices.Delete(list, idx, idx+1)
		}
		if len(list) == 0 {
			delete(m.users, id)
		} else {
			m.users[id] = list
		}
	}
	delete(m.uses, inst)
}

// Erase forgets inst and drops its definition. Call it before an
// instruction is destroyed.
func (m *Manager) Erase(inst *spirv.Instruction) {
	m.Forget(inst)
	if id := inst.ResultID(); id != 0 && m.defs[id] == inst {
		delete(m.defs, id)
	}
}

// Def returns the instruction defining id, or nil.
func (m *Manager) Def(id uint32) *spirv.Instruction { return m.defs[id] }

// Users returns a snapshot of the users of id in registration order.
func (m *Manager) Users(id uint32) []*spirv.Instruction {
	return slices.Clone(m.users[id])
}

// NumUsers returns how many instructions use id.
func (m *Manager) NumUsers(id uint32) int { return len(m.users[id]) }

// ForEachUser calls fn for every user of id. fn may mutate the index.
func (m *Manager) ForEachUser(id uint32, fn func(*spirv.Instruction)) {
	for _, u := range m.Users(id) {
		fn(u)
	}
}

// WhileEachUser calls pred for the users of id until it returns false and
// reports whether every call returned true.
func (m *Manager) WhileEachUser(id uint32, pred func(*spirv.Instruction) bool) bool {
	for _, u := range m.Users(id) {
		if !pred(u) {
			return false
		}
	}
	return true
}

// ReplaceAllUsesWith rewrites every registered use of from, result type
// slots included, to to. It reports whether any instruction changed.
func (m *Manager) ReplaceAllUsesWith(from, to uint32) bool {
	if from == to {
		return false
	}
	changed := false
	for _, u := range m.Users(from) {
		m.Forget(u)
		if u.ReplaceID(from, to) {
			changed = true
		}
		m.RecordUse(u)
	}
	return changed
}

// Edit runs mutate on a registered instruction and re-registers it. A
// changed result id moves the definition; the new id must be free. When it
// is taken the old result id is put back and keeps its definition.
func (m *Manager) Edit(inst *spirv.Instruction, mutate func()) error {
	oldID := inst.ResultID()
	m.Forget(inst)
	mutate()
	defer m.RecordUse(inst)
	newID := inst.ResultID()
	if newID == oldID {
		return nil
	}
	if prev, ok := m.defs[newID]; ok && newID != 0 && prev != inst {
		inst.SetResultID(oldID)
		return fmt.Errorf("%%%d: %w (%s and %s)", newID, ErrDoubleDefinition, prev.Opcode(), inst.Opcode())
	}
	if oldID != 0 && m.defs[oldID] == inst {
		delete(m.defs, oldID)
	}
	return m.RecordDefinition(inst)
}
