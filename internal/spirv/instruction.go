package spirv

import (
	"fmt"
	"slices"
)

// Instruction is one SPIR-V instruction. The result type and result id are
// kept apart from the in-operands; zero means the slot is absent.
//
// An instruction is owned by at most one container at a time: a basic block,
// a function (OpFunction, OpFunctionParameter, OpFunctionEnd) or a module
// section. Containers panic when asked to adopt an owned instruction.
type Instruction struct {
	op       Op
	typeID   uint32
	resultID uint32
	operands []Operand

	block   *BasicBlock
	fn      *Function
	section Section

	offset int
}

// NewInstruction creates a detached instruction.
func NewInstruction(op Op, typeID, resultID uint32, operands ...Operand) *Instruction {
	return &Instruction{
		op:       op,
		typeID:   typeID,
		resultID: resultID,
		operands: operands,
		offset:   -1,
	}
}

// Opcode returns the opcode.
func (i *Instruction) Opcode() Op { return i.op }

// TypeID returns the result type id, or 0.
func (i *Instruction) TypeID() uint32 { return i.typeID }

// ResultID returns the result id, or 0.
func (i *Instruction) ResultID() uint32 { return i.resultID }

// SetTypeID replaces the result type id. Callers own def-use bookkeeping.
func (i *Instruction) SetTypeID(id uint32) { i.typeID = id }

// SetResultID replaces the result id. Callers own def-use bookkeeping.
func (i *Instruction) SetResultID(id uint32) { i.resultID = id }

// NumOperands returns the number of in-operands.
func (i *Instruction) NumOperands() int { return len(i.operands) }

// Operand returns the in-operand at idx.
func (i *Instruction) Operand(idx int) Operand { return i.operands[idx] }

// OperandID returns the id held by the in-operand at idx, or 0 when idx is
// out of range or not an id.
func (i *Instruction) OperandID(idx int) uint32 {
	if idx < 0 || idx >= len(i.operands) {
		return 0
	}
	return i.operands[idx].ID()
}

// Word returns the first word of the in-operand at idx, or 0.
func (i *Instruction) Word(idx int) uint32 {
	if idx < 0 || idx >= len(i.operands) {
		return 0
	}
	return i.operands[idx].Word()
}

// Operands returns a copy of the operand list.
func (i *Instruction) Operands() []Operand {
	out := make([]Operand, len(i.operands))
	for k, o := range i.operands {
		out[k] = o.Clone()
	}
	return out
}

// SetOperand replaces the in-operand at idx.
func (i *Instruction) SetOperand(idx int, o Operand) { i.operands[idx] = o }

// SetOperands replaces every in-operand.
func (i *Instruction) SetOperands(ops []Operand) { i.operands = ops }

// AppendOperand adds an in-operand at the end.
func (i *Instruction) AppendOperand(o Operand) { i.operands = append(i.operands, o) }

// ForEachInID calls fn with a pointer to every id slot among the in-operands.
func (i *Instruction) ForEachInID(fn func(*uint32)) {
	for k := range i.operands {
		i.operands[k].forEachID(fn)
	}
}

// ForEachID is ForEachInID preceded by the result type slot. The result id
// is a definition and is not visited.
func (i *Instruction) ForEachID(fn func(*uint32)) {
	if i.typeID != 0 {
		fn(&i.typeID)
	}
	i.ForEachInID(fn)
}

// ReplaceID rewrites every id slot holding from to to and reports whether
// anything changed.
func (i *Instruction) ReplaceID(from, to uint32) bool {
	changed := false
	i.ForEachID(func(p *uint32) {
		if *p == from {
			*p = to
			changed = true
		}
	})
	return changed
}

// Clone returns a detached deep copy carrying the same ids.
func (i *Instruction) Clone() *Instruction {
	ops := make([]Operand, len(i.operands))
	for k, o := range i.operands {
		ops[k] = o.Clone()
	}
	return &Instruction{
		op:       i.op,
		typeID:   i.typeID,
		resultID: i.resultID,
		operands: ops,
		offset:   -1,
	}
}

// Block returns the basic block holding the instruction, or nil.
func (i *Instruction) Block() *BasicBlock { return i.block }

// Function returns the function the instruction lives in, or nil at module
// scope.
func (i *Instruction) Function() *Function {
	if i.block != nil {
		return i.block.fn
	}
	return i.fn
}

// Section returns the module section holding the instruction.
func (i *Instruction) Section() Section { return i.section }

// Offset returns the word offset of the instruction in the decoded binary,
// or -1 for synthesized instructions.
func (i *Instruction) Offset() int { return i.offset }

// Attached reports whether some container owns the instruction.
func (i *Instruction) Attached() bool {
	return i.block != nil || i.fn != nil || i.section != SectionNone
}

func (i *Instruction) mustBeDetached(where string) {
	if i.Attached() {
		panic(fmt.Sprintf("spirv: %s: %s already owned by another container", where, i.op))
	}
}

// WordCount returns the encoded size including the opcode word.
func (i *Instruction) WordCount() int {
	n := 1
	if i.typeID != 0 {
		n++
	}
	if i.resultID != 0 {
		n++
	}
	for _, o := range i.operands {
		n += len(o.Words)
	}
	return n
}

// StorageClass returns the storage class of an OpVariable or OpTypePointer.
func (i *Instruction) StorageClass() StorageClass {
	switch i.op {
	case OpVariable, OpTypePointer:
		return StorageClass(i.Word(0))
	}
	return 0
}

// ExtInstSet returns the import id of an OpExtInst.
func (i *Instruction) ExtInstSet() uint32 {
	if i.op != OpExtInst {
		return 0
	}
	return i.OperandID(0)
}

// ExtInstNumber returns the extended instruction number of an OpExtInst.
func (i *Instruction) ExtInstNumber() uint32 {
	if i.op != OpExtInst {
		return 0
	}
	return i.Word(1)
}

// Equal compares opcode, ids and operands. Ownership is ignored.
func (i *Instruction) Equal(other *Instruction) bool {
	if i.op != other.op || i.typeID != other.typeID || i.resultID != other.resultID {
		return false
	}
	return slices.EqualFunc(i.operands, other.operands, Operand.Equal)
}

func (i *Instruction) String() string {
	return formatInstruction(i)
}
