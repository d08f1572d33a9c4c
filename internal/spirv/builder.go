package spirv

// Builder constructs modules instruction by instruction. Ids come from the
// module bound, so a finished module always has a consistent header.
// Builder methods panic on misuse; they are meant for tools and tests that
// build known-good modules.
type Builder struct {
	m *Module
}

// NewBuilder starts an empty module of version v.
func NewBuilder(v Version) *Builder {
	return &Builder{m: NewModule(v)}
}

// Module returns the module under construction.
func (b *Builder) Module() *Module { return b.m }

// AllocID allocates a fresh id.
func (b *Builder) AllocID() uint32 {
	id, err := b.m.TakeNextID()
	if err != nil {
		panic(err)
	}
	return id
}

// Inst appends a module-scope instruction to the section of its opcode.
func (b *Builder) Inst(op Op, typeID, resultID uint32, ops ...Operand) *Instruction {
	inst := NewInstruction(op, typeID, resultID, ops...)
	b.m.Add(inst)
	return inst
}

func (b *Builder) define(op Op, typeID uint32, ops ...Operand) uint32 {
	id := b.AllocID()
	b.Inst(op, typeID, id, ops...)
	return id
}

// Capability declares c.
func (b *Builder) Capability(c Capability) {
	b.Inst(OpCapability, 0, 0, LiteralOperand(uint32(c)))
}

// MemoryModel sets the addressing and memory model.
func (b *Builder) MemoryModel(a AddressingModel, mm MemoryModel) {
	b.Inst(OpMemoryModel, 0, 0, LiteralOperand(uint32(a)), LiteralOperand(uint32(mm)))
}

// ExtInstImport imports an extended instruction set.
func (b *Builder) ExtInstImport(name string) uint32 {
	return b.define(OpExtInstImport, 0, StringOperand(name))
}

// EntryPoint declares fn as an entry point with the given interface ids.
func (b *Builder) EntryPoint(model ExecutionModel, fn uint32, name string, iface ...uint32) *Instruction {
	ops := []Operand{LiteralOperand(uint32(model)), IDOperand(fn), StringOperand(name)}
	for _, id := range iface {
		ops = append(ops, IDOperand(id))
	}
	return b.Inst(OpEntryPoint, 0, 0, ops...)
}

// ExecutionMode adds an OpExecutionMode for an entry point.
func (b *Builder) ExecutionMode(fn, mode uint32, params ...uint32) {
	ops := []Operand{IDOperand(fn), LiteralOperand(mode)}
	if len(params) > 0 {
		ops = append(ops, LiteralOperand(params...))
	}
	b.Inst(OpExecutionMode, 0, 0, ops...)
}

// DebugString adds an OpString.
func (b *Builder) DebugString(s string) uint32 {
	return b.define(OpString, 0, StringOperand(s))
}

// Name adds an OpName.
func (b *Builder) Name(id uint32, name string) *Instruction {
	return b.Inst(OpName, 0, 0, IDOperand(id), StringOperand(name))
}

// MemberName adds an OpMemberName.
func (b *Builder) MemberName(id, member uint32, name string) *Instruction {
	return b.Inst(OpMemberName, 0, 0, IDOperand(id), LiteralOperand(member), StringOperand(name))
}

// Decorate adds an OpDecorate.
func (b *Builder) Decorate(id uint32, d Decoration, params ...uint32) *Instruction {
	ops := []Operand{IDOperand(id), LiteralOperand(uint32(d))}
	if len(params) > 0 {
		ops = append(ops, LiteralOperand(params...))
	}
	return b.Inst(OpDecorate, 0, 0, ops...)
}

// TypeVoid declares void.
func (b *Builder) TypeVoid() uint32 { return b.define(OpTypeVoid, 0) }

// TypeBool declares bool.
func (b *Builder) TypeBool() uint32 { return b.define(OpTypeBool, 0) }

// TypeInt declares an integer type.
func (b *Builder) TypeInt(width uint32, signed bool) uint32 {
	var s uint32
	if signed {
		s = 1
	}
	return b.define(OpTypeInt, 0, LiteralOperand(width), LiteralOperand(s))
}

// TypeFloat declares a float type.
func (b *Builder) TypeFloat(width uint32) uint32 {
	return b.define(OpTypeFloat, 0, LiteralOperand(width))
}

// TypeVector declares a vector type.
func (b *Builder) TypeVector(component, count uint32) uint32 {
	return b.define(OpTypeVector, 0, IDOperand(component), LiteralOperand(count))
}

// TypeMatrix declares a matrix type.
func (b *Builder) TypeMatrix(column, count uint32) uint32 {
	return b.define(OpTypeMatrix, 0, IDOperand(column), LiteralOperand(count))
}

// TypeArray declares an array whose length is the constant lengthID.
func (b *Builder) TypeArray(elem, lengthID uint32) uint32 {
	return b.define(OpTypeArray, 0, IDOperand(elem), IDOperand(lengthID))
}

// TypeRuntimeArray declares a runtime array.
func (b *Builder) TypeRuntimeArray(elem uint32) uint32 {
	return b.define(OpTypeRuntimeArray, 0, IDOperand(elem))
}

// TypeStruct declares a struct.
func (b *Builder) TypeStruct(members ...uint32) uint32 {
	ops := make([]Operand, len(members))
	for i, m := range members {
		ops[i] = IDOperand(m)
	}
	return b.define(OpTypeStruct, 0, ops...)
}

// TypePointer declares a pointer type.
func (b *Builder) TypePointer(sc StorageClass, pointee uint32) uint32 {
	return b.define(OpTypePointer, 0, LiteralOperand(uint32(sc)), IDOperand(pointee))
}

// TypeForwardPointer forward-declares pointer type id.
func (b *Builder) TypeForwardPointer(id uint32, sc StorageClass) {
	b.Inst(OpTypeForwardPointer, 0, 0, IDOperand(id), LiteralOperand(uint32(sc)))
}

// TypePointerWithID declares a pointer type under a preallocated id.
func (b *Builder) TypePointerWithID(id uint32, sc StorageClass, pointee uint32) {
	b.Inst(OpTypePointer, 0, id, LiteralOperand(uint32(sc)), IDOperand(pointee))
}

// TypeFunction declares a function type.
func (b *Builder) TypeFunction(ret uint32, params ...uint32) uint32 {
	ops := []Operand{IDOperand(ret)}
	for _, p := range params {
		ops = append(ops, IDOperand(p))
	}
	return b.define(OpTypeFunction, 0, ops...)
}

// Constant declares a scalar constant.
func (b *Builder) Constant(typeID uint32, words ...uint32) uint32 {
	return b.define(OpConstant, typeID, LiteralOperand(words...))
}

// ConstantTrue declares true.
func (b *Builder) ConstantTrue(boolType uint32) uint32 {
	return b.define(OpConstantTrue, boolType)
}

// ConstantFalse declares false.
func (b *Builder) ConstantFalse(boolType uint32) uint32 {
	return b.define(OpConstantFalse, boolType)
}

// ConstantNull declares a null constant.
func (b *Builder) ConstantNull(typeID uint32) uint32 {
	return b.define(OpConstantNull, typeID)
}

// ConstantComposite declares a composite constant.
func (b *Builder) ConstantComposite(typeID uint32, parts ...uint32) uint32 {
	ops := make([]Operand, len(parts))
	for i, p := range parts {
		ops[i] = IDOperand(p)
	}
	return b.define(OpConstantComposite, typeID, ops...)
}

// Variable declares a module-scope variable.
func (b *Builder) Variable(ptrType uint32, sc StorageClass, init ...uint32) uint32 {
	ops := []Operand{LiteralOperand(uint32(sc))}
	if len(init) > 0 {
		ops = append(ops, IDOperand(init[0]))
	}
	return b.define(OpVariable, ptrType, ops...)
}

// ExtInst adds a module-scope OpExtInst whose operands are all ids.
func (b *Builder) ExtInst(typeID, set, number uint32, args ...uint32) uint32 {
	return b.define(OpExtInst, typeID, extInstOperands(set, number, args)...)
}

func extInstOperands(set, number uint32, args []uint32) []Operand {
	ops := []Operand{IDOperand(set), LiteralOperand(number)}
	for _, a := range args {
		ops = append(ops, IDOperand(a))
	}
	return ops
}

// Function starts a function definition. OpFunctionEnd is implicit.
func (b *Builder) Function(ret, fnType uint32) *FunctionBuilder {
	id := b.AllocID()
	def := NewInstruction(OpFunction, ret, id, LiteralOperand(uint32(FunctionControlNone)), IDOperand(fnType))
	f := NewFunction(def)
	b.m.AddFunction(f)
	return &FunctionBuilder{b: b, fn: f}
}

// FunctionBuilder appends parameters, blocks and instructions to one
// function.
type FunctionBuilder struct {
	b   *Builder
	fn  *Function
	cur *BasicBlock
}

// ID returns the function id.
func (fb *FunctionBuilder) ID() uint32 { return fb.fn.ResultID() }

// Function returns the function under construction.
func (fb *FunctionBuilder) Function() *Function { return fb.fn }

// Param adds a parameter.
func (fb *FunctionBuilder) Param(typeID uint32) uint32 {
	id := fb.b.AllocID()
	fb.fn.AddParam(NewInstruction(OpFunctionParameter, typeID, id))
	return id
}

// Block opens a new basic block and returns its label id.
func (fb *FunctionBuilder) Block() uint32 {
	id := fb.b.AllocID()
	fb.cur = NewBasicBlock(NewInstruction(OpLabel, 0, id))
	fb.fn.AddBlock(fb.cur)
	return id
}

// Inst appends an instruction to the current block. A result id is
// allocated when resultID is true.
func (fb *FunctionBuilder) Inst(op Op, typeID uint32, resultID bool, ops ...Operand) *Instruction {
	if fb.cur == nil {
		fb.Block()
	}
	var id uint32
	if resultID {
		id = fb.b.AllocID()
	}
	inst := NewInstruction(op, typeID, id, ops...)
	fb.cur.Append(inst)
	return inst
}

// Variable declares a Function-storage variable in the current block.
func (fb *FunctionBuilder) Variable(ptrType uint32) uint32 {
	return fb.Inst(OpVariable, ptrType, true, LiteralOperand(uint32(StorageClassFunction))).resultID
}

// Load reads through ptr.
func (fb *FunctionBuilder) Load(typeID, ptr uint32) uint32 {
	return fb.Inst(OpLoad, typeID, true, IDOperand(ptr)).resultID
}

// Store writes val through ptr.
func (fb *FunctionBuilder) Store(ptr, val uint32) *Instruction {
	return fb.Inst(OpStore, 0, false, IDOperand(ptr), IDOperand(val))
}

// AccessChain derives a pointer from base.
func (fb *FunctionBuilder) AccessChain(typeID, base uint32, indices ...uint32) uint32 {
	ops := []Operand{IDOperand(base)}
	for _, i := range indices {
		ops = append(ops, IDOperand(i))
	}
	return fb.Inst(OpAccessChain, typeID, true, ops...).resultID
}

// Call calls fn.
func (fb *FunctionBuilder) Call(ret, fn uint32, args ...uint32) uint32 {
	ops := []Operand{IDOperand(fn)}
	for _, a := range args {
		ops = append(ops, IDOperand(a))
	}
	return fb.Inst(OpFunctionCall, ret, true, ops...).resultID
}

// ExtInst adds an OpExtInst to the current block.
func (fb *FunctionBuilder) ExtInst(typeID, set, number uint32, args ...uint32) uint32 {
	return fb.Inst(OpExtInst, typeID, true, extInstOperands(set, number, args)...).resultID
}

// Return terminates the current block.
func (fb *FunctionBuilder) Return() {
	fb.Inst(OpReturn, 0, false)
	fb.cur = nil
}

// Switch terminates the current block with a multi-way branch on selector.
func (fb *FunctionBuilder) Switch(selector, def uint32, targets ...SwitchTarget) *Instruction {
	inst := fb.Inst(OpSwitch, 0, false, SwitchOperands(selector, def, targets...)...)
	fb.cur = nil
	return inst
}

// ReturnValue terminates the current block with a value.
func (fb *FunctionBuilder) ReturnValue(v uint32) {
	fb.Inst(OpReturnValue, 0, false, IDOperand(v))
	fb.cur = nil
}
