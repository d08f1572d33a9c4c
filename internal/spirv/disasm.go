package spirv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Disassemble writes a textual listing of m, one instruction per line.
func Disassemble(m *Module, w io.Writer) error {
	bw := bufio.NewWriter(w)
	h := m.Header()
	fmt.Fprintf(bw, "; SPIR-V\n")
	fmt.Fprintf(bw, "; Version: %s\n", m.Version())
	fmt.Fprintf(bw, "; Generator: 0x%08X\n", h.Generator)
	fmt.Fprintf(bw, "; Bound: %d\n", h.Bound)
	fmt.Fprintf(bw, "; Schema: %d\n", h.Schema)
	m.ForEachInst(func(inst *Instruction) {
		bw.WriteString(formatLine(inst))
		bw.WriteByte('\n')
	})
	return bw.Flush()
}

// resultColumn is the width of the "%id = " gutter.
const resultColumn = 14

func formatLine(inst *Instruction) string {
	body := formatInstruction(inst)
	if inst.resultID == 0 {
		return strings.Repeat(" ", resultColumn+3) + body
	}
	res := "%" + strconv.FormatUint(uint64(inst.resultID), 10)
	pad := max(resultColumn-len(res), 0)
	return strings.Repeat(" ", pad) + res + " = " + strings.TrimPrefix(body, res+" = ")
}

func formatInstruction(inst *Instruction) string {
	var sb strings.Builder
	if inst.resultID != 0 {
		fmt.Fprintf(&sb, "%%%d = ", inst.resultID)
	}
	sb.WriteString(inst.op.String())
	if inst.typeID != 0 {
		fmt.Fprintf(&sb, " %%%d", inst.typeID)
	}
	for idx, o := range inst.operands {
		sb.WriteByte(' ')
		sb.WriteString(formatOperand(inst.op, idx, o))
	}
	return sb.String()
}

func formatOperand(op Op, idx int, o Operand) string {
	switch o.Kind {
	case OperandID:
		return "%" + strconv.FormatUint(uint64(o.ID()), 10)
	case OperandString:
		return strconv.Quote(o.AsString())
	}
	if len(o.Words) == 1 {
		if name, ok := enumName(op, idx, o.Words[0]); ok {
			return name
		}
	}
	parts := make([]string, len(o.Words))
	for k, w := range o.Words {
		parts[k] = strconv.FormatUint(uint64(w), 10)
	}
	return strings.Join(parts, " ")
}

// enumName names the enumerant literals the listing cares about.
func enumName(op Op, idx int, w uint32) (string, bool) {
	var (
		name string
		ok   bool
	)
	switch {
	case op == OpCapability && idx == 0:
		name, ok = capabilityNames[Capability(w)]
	case (op == OpVariable || op == OpTypePointer) && idx == 0:
		name, ok = storageClassNames[StorageClass(w)]
	case op == OpEntryPoint && idx == 0:
		name, ok = executionModelNames[ExecutionModel(w)]
	case (op == OpDecorate || op == OpDecorateID || op == OpDecorateString) && idx == 1:
		name, ok = decorationNames[Decoration(w)]
	case (op == OpMemberDecorate || op == OpMemberDecorateString) && idx == 2:
		name, ok = decorationNames[Decoration(w)]
	case op == OpSpecConstantOp && idx == 0:
		l, found := grammar[Op(w)]
		name, ok = strings.TrimPrefix(l.name, "Op"), found
	}
	return name, ok
}
