package spirv

// Function is an OpFunction ... OpFunctionEnd range.
type Function struct {
	def    *Instruction
	params []*Instruction
	blocks []*BasicBlock
	end    *Instruction
	module *Module
}

// NewFunction creates a detached function from its OpFunction instruction.
func NewFunction(def *Instruction) *Function {
	f := &Function{}
	def.mustBeDetached("NewFunction")
	def.fn = f
	f.def = def
	end := NewInstruction(OpFunctionEnd, 0, 0)
	end.fn = f
	f.end = end
	return f
}

// Def returns the OpFunction instruction.
func (f *Function) Def() *Instruction { return f.def }

// ResultID returns the function id.
func (f *Function) ResultID() uint32 { return f.def.resultID }

// TypeID returns the function type id (last operand of OpFunction).
func (f *Function) TypeID() uint32 { return f.def.OperandID(1) }

// Params returns the OpFunctionParameter instructions.
func (f *Function) Params() []*Instruction { return f.params }

// AddParam appends a parameter.
func (f *Function) AddParam(param *Instruction) {
	param.mustBeDetached("Function.AddParam")
	param.fn = f
	f.params = append(f.params, param)
}

// Blocks returns the basic blocks in layout order.
func (f *Function) Blocks() []*BasicBlock { return f.blocks }

// AddBlock appends a detached block.
func (f *Function) AddBlock(b *BasicBlock) {
	if b.fn != nil {
		panic("spirv: Function.AddBlock: block already owned")
	}
	b.fn = f
	f.blocks = append(f.blocks, b)
}

// EntryBlock returns the first block, or nil for a declaration.
func (f *Function) EntryBlock() *BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// End returns the OpFunctionEnd instruction.
func (f *Function) End() *Instruction { return f.end }

// Module returns the owning module.
func (f *Function) Module() *Module { return f.module }

// ForEachInst visits the definition, the parameters, every block label and
// instruction and finally OpFunctionEnd.
func (f *Function) ForEachInst(fn func(*Instruction)) {
	fn(f.def)
	for _, p := range f.params {
		fn(p)
	}
	for _, b := range f.blocks {
		if b.label != nil {
			fn(b.label)
		}
		for _, inst := range b.insts {
			fn(inst)
		}
	}
	fn(f.end)
}
