package spirv

import "slices"

// BasicBlock is a label followed by the instructions of the block, the
// terminator included.
type BasicBlock struct {
	label *Instruction
	insts []*Instruction
	fn    *Function
}

// NewBasicBlock creates a detached block headed by label.
func NewBasicBlock(label *Instruction) *BasicBlock {
	b := &BasicBlock{label: label}
	if label != nil {
		label.mustBeDetached("NewBasicBlock")
		label.block = b
	}
	return b
}

// Label returns the OpLabel instruction.
func (b *BasicBlock) Label() *Instruction { return b.label }

// ID returns the label id.
func (b *BasicBlock) ID() uint32 {
	if b.label == nil {
		return 0
	}
	return b.label.resultID
}

// Function returns the owning function.
func (b *BasicBlock) Function() *Function { return b.fn }

// Instructions returns the instruction list. Do not modify the slice.
func (b *BasicBlock) Instructions() []*Instruction { return b.insts }

// Len returns the number of instructions excluding the label.
func (b *BasicBlock) Len() int { return len(b.insts) }

// Append adds inst at the end of the block.
func (b *BasicBlock) Append(inst *Instruction) {
	inst.mustBeDetached("BasicBlock.Append")
	inst.block = b
	b.insts = append(b.insts, inst)
}

// InsertFront makes inst the first instruction after the label.
func (b *BasicBlock) InsertFront(inst *Instruction) {
	inst.mustBeDetached("BasicBlock.InsertFront")
	inst.block = b
	b.insts = slices.Insert(b.insts, 0, inst)
}

// InsertAfter places inst right after anchor. A nil anchor inserts at the
// front. It returns false when anchor is not in the block.
func (b *BasicBlock) InsertAfter(anchor, inst *Instruction) bool {
	if anchor == nil {
		b.InsertFront(inst)
		return true
	}
	idx := slices.Index(b.insts, anchor)
	if idx < 0 {
		return false
	}
	inst.mustBeDetached("BasicBlock.InsertAfter")
	inst.block = b
	b.insts = slices.Insert(b.insts, idx+1, inst)
	return true
}

// Remove detaches inst from the block.
func (b *BasicBlock) Remove(inst *Instruction) bool {
	idx := slices.Index(b.insts, inst)
	if idx < 0 {
		return false
	}
	b.insts = slices.Delete(b.insts, idx, idx+1)
	inst.block = nil
	return true
}

// Terminator returns the last instruction when it ends the block.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.insts) == 0 {
		return nil
	}
	last := b.insts[len(b.insts)-1]
	if !IsTerminator(last.op) {
		return nil
	}
	return last
}
