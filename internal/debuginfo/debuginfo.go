// Package debuginfo edits NonSemantic.Shader.DebugInfo.100 records.
package debuginfo

import (
	"errors"
	"fmt"

	"spvopt/internal/defuse"
	"spvopt/internal/spirv"
)

// SetName is the extended instruction set handled here.
const SetName = "NonSemantic.Shader.DebugInfo.100"

// Extended instruction numbers.
const (
	DebugGlobalVariable     uint32 = 18
	DebugFunction           uint32 = 20
	DebugLocalVariable      uint32 = 26
	DebugDeclare            uint32 = 28
	DebugExpression         uint32 = 31
	DebugFunctionDefinition uint32 = 101
)

// Argument positions inside the OpExtInst operand list. Operand 0 is the
// set and operand 1 the instruction number.
const (
	argName   = 2
	argType   = 3
	argSource = 4
	argLine   = 5
	argColumn = 6
	argParent = 7

	globalArgVariable = 9
	globalArgFlags    = 10
)

var (
	ErrNotGlobalVariable = errors.New("not a DebugGlobalVariable record")
	ErrNotInFunction     = errors.New("variable is not inside a function")
)

// Converter rewrites debug records when variables move between scopes.
type Converter struct {
	module *spirv.Module
	defuse *defuse.Manager

	pendingExpr uint32
}

// New creates a converter.
func New(m *spirv.Module, du *defuse.Manager) *Converter {
	return &Converter{module: m, defuse: du}
}

// IsDebugRecord reports whether inst is an OpExtInst of the debug-info set
// with the given instruction number.
func (c *Converter) IsDebugRecord(inst *spirv.Instruction, number uint32) bool {
	if inst.Opcode() != spirv.OpExtInst || inst.ExtInstNumber() != number {
		return false
	}
	name, ok := c.module.ExtInstImportName(inst.ExtInstSet())
	return ok && name == SetName
}

// IsGlobalVariable reports whether inst is a DebugGlobalVariable record.
func (c *Converter) IsGlobalVariable(inst *spirv.Instruction) bool {
	return c.IsDebugRecord(inst, DebugGlobalVariable)
}

// GlobalVariableOf returns the variable id a DebugGlobalVariable describes.
func GlobalVariableOf(record *spirv.Instruction) uint32 {
	return record.OperandID(globalArgVariable)
}

// Conversion is a DebugGlobalVariable scheduled to become local. The ids
// it needs are taken when the conversion is reserved, so applying it cannot
// run out of ids.
type Conversion struct {
	record  *spirv.Instruction
	declare uint32
	expr    uint32
	newExpr bool
}

// Record returns the DebugGlobalVariable being converted.
func (cv *Conversion) Record() *spirv.Instruction { return cv.record }

// ReserveGlobalToLocal validates record and takes the ids its conversion
// will need. Conversions reserved before any of them is applied share one
// new empty DebugExpression.
func (c *Converter) ReserveGlobalToLocal(record *spirv.Instruction) (*Conversion, error) {
	if !c.IsGlobalVariable(record) {
		return nil, ErrNotGlobalVariable
	}
	cv := &Conversion{record: record, expr: c.findEmptyExpression()}
	if cv.expr == 0 {
		if c.pendingExpr == 0 {
			id, err := c.module.TakeNextID()
			if err != nil {
				return nil, err
			}
			c.pendingExpr = id
		}
		cv.expr, cv.newExpr = c.pendingExpr, true
	}
	id, err := c.module.TakeNextID()
	if err != nil {
		return nil, err
	}
	cv.declare = id
	return cv, nil
}

// ConvertGlobalToLocal turns the reserved record into a DebugLocalVariable
// for the function-scope variable that replaced it, and declares the pair
// with a DebugDeclare after the last OpVariable of the entry block.
func (c *Converter) ConvertGlobalToLocal(cv *Conversion, variable *spirv.Instruction) error {
	record := cv.record
	fn := variable.Function()
	if fn == nil || fn.EntryBlock() == nil {
		return ErrNotInFunction
	}
	scope := c.functionScope(fn)
	if scope == 0 {
		scope = record.OperandID(argParent)
	}
	set := record.ExtInstSet()
	void := record.TypeID()

	err := c.defuse.Edit(record, func() {
		record.SetOperands([]spirv.Operand{
			spirv.IDOperand(set),
			spirv.LiteralOperand(DebugLocalVariable),
			spirv.IDOperand(record.OperandID(argName)),
			spirv.IDOperand(record.OperandID(argType)),
			spirv.IDOperand(record.OperandID(argSource)),
			spirv.IDOperand(record.OperandID(argLine)),
			spirv.IDOperand(record.OperandID(argColumn)),
			spirv.IDOperand(scope),
			spirv.IDOperand(record.OperandID(globalArgFlags)),
		})
	})
	if err != nil {
		return fmt.Errorf("rewrite %%%d: %w", record.ResultID(), err)
	}

	if cv.newExpr && c.defuse.Def(cv.expr) == nil {
		expr := spirv.NewInstruction(spirv.OpExtInst, void, cv.expr,
			spirv.IDOperand(set), spirv.LiteralOperand(DebugExpression))
		if !c.module.InsertGlobalAfter(record, expr) {
			c.module.AddGlobal(expr)
		}
		if err := c.defuse.Analyze(expr); err != nil {
			return err
		}
	}
	declare := spirv.NewInstruction(spirv.OpExtInst, void, cv.declare,
		spirv.IDOperand(set),
		spirv.LiteralOperand(DebugDeclare),
		spirv.IDOperand(record.ResultID()),
		spirv.IDOperand(variable.ResultID()),
		spirv.IDOperand(cv.expr),
	)
	entry := fn.EntryBlock()
	entry.InsertAfter(lastVariable(entry), declare)
	return c.defuse.Analyze(declare)
}

// functionScope returns the DebugFunction attached to fn, or 0.
func (c *Converter) functionScope(fn *spirv.Function) uint32 {
	for _, b := range fn.Blocks() {
		for _, inst := range b.Instructions() {
			if c.IsDebugRecord(inst, DebugFunctionDefinition) && inst.OperandID(3) == fn.ResultID() {
				return inst.OperandID(2)
			}
		}
	}
	return 0
}

// findEmptyExpression returns a DebugExpression without operations, or 0.
func (c *Converter) findEmptyExpression() uint32 {
	for _, inst := range c.module.TypesValues() {
		if c.IsDebugRecord(inst, DebugExpression) && inst.NumOperands() == 2 {
			return inst.ResultID()
		}
	}
	return 0
}

func lastVariable(b *spirv.BasicBlock) *spirv.Instruction {
	var last *spirv.Instruction
	for _, inst := range b.Instructions() {
		if inst.Opcode() != spirv.OpVariable {
			break
		}
		last = inst
	}
	return last
}
