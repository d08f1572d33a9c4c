package spirv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// Decoder errors. DecodeError wraps one of them.
var (
	ErrMalformed         = errors.New("malformed SPIR-V")
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
)

// DecodeError reports where decoding stopped.
type DecodeError struct {
	Offset int // word offset, -1 for header problems
	Op     Op
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("spirv: %v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("spirv: word %d (%s): %v: %s", e.Offset, e.Op, e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Err }

const headerWords = 5

// Decode parses a SPIR-V binary. Both byte orders are accepted.
func Decode(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, &DecodeError{Offset: -1, Err: ErrMalformed, Detail: "size is not a multiple of 4"}
	}
	if len(data) < headerWords*4 {
		return nil, &DecodeError{Offset: -1, Err: ErrMalformed, Detail: "missing header"}
	}
	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data) {
	case MagicNumber:
	case 0x03022307:
		order = binary.BigEndian
	default:
		return nil, &DecodeError{Offset: -1, Err: ErrMalformed,
			Detail: fmt.Sprintf("invalid magic 0x%08X", binary.LittleEndian.Uint32(data))}
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return DecodeWords(words)
}

// DecodeWords parses a module already split into host-order words.
func DecodeWords(words []uint32) (*Module, error) {
	if len(words) < headerWords || words[0] != MagicNumber {
		return nil, &DecodeError{Offset: -1, Err: ErrMalformed, Detail: "invalid header"}
	}
	m := &Module{header: Header{
		Magic:     words[0],
		Version:   words[1],
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
	}}
	d := decoder{
		module:     m,
		valueTypes: make(map[uint32]uint32),
		scalarSize: make(map[uint32]int),
	}
	for off := headerWords; off < len(words); {
		first := words[off]
		op := Op(first & 0xFFFF)
		wc := int(first >> 16)
		if wc == 0 || off+wc > len(words) {
			return nil, &DecodeError{Offset: off, Op: op, Err: ErrMalformed,
				Detail: fmt.Sprintf("invalid word count %d", wc)}
		}
		inst, err := d.decodeInstruction(op, words[off+1:off+wc])
		if err != nil {
			return nil, &DecodeError{Offset: off, Op: op, Err: err, Detail: "cannot type operands"}
		}
		inst.offset = off
		d.record(inst)
		if err := d.place(inst); err != nil {
			return nil, &DecodeError{Offset: off, Op: op, Err: ErrMalformed, Detail: err.Error()}
		}
		off += wc
	}
	if d.fn != nil {
		return nil, &DecodeError{Offset: len(words), Op: OpFunctionEnd, Err: ErrMalformed,
			Detail: "missing OpFunctionEnd"}
	}
	return m, nil
}

func (d *decoder) decodeInstruction(op Op, body []uint32) (*Instruction, error) {
	l, ok := grammar[op]
	if !ok {
		return nil, ErrUnsupportedOpcode
	}
	inst := &Instruction{op: op, offset: -1}
	if l.hasType() {
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: missing result type", ErrMalformed)
		}
		inst.typeID, body = body[0], body[1:]
	}
	if l.hasResult() {
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: missing result id", ErrMalformed)
		}
		inst.resultID, body = body[0], body[1:]
	}
	specs := l.operands
	if op == OpSpecConstantOp {
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: missing embedded opcode", ErrMalformed)
		}
		embedded, err := safecast.Conv[uint16](body[0])
		if err != nil {
			return nil, fmt.Errorf("%w: embedded opcode %d", ErrMalformed, body[0])
		}
		el, ok := grammar[Op(embedded)]
		if !ok {
			return nil, fmt.Errorf("%w: embedded %s", ErrUnsupportedOpcode, Op(embedded))
		}
		specs = append(specs[:len(specs):len(specs)], el.operands...)
	}
	caseWords := 1
	if op == OpSwitch && len(body) > 0 {
		caseWords = d.literalWords(body[0])
	}
	ops, err := parseOperands(specs, body, caseWords)
	if err != nil {
		return nil, err
	}
	inst.operands = ops
	return inst, nil
}

// parseOperands types the in-operand words. caseWords is the width of an
// OpSwitch case literal.
func parseOperands(specs []operandSpec, words []uint32, caseWords int) ([]Operand, error) {
	var ops []Operand
	for _, spec := range specs {
		switch spec.quant {
		case quantOne, quantOptional:
			if len(words) == 0 {
				if spec.quant == quantOptional {
					continue
				}
				return nil, fmt.Errorf("%w: missing %s operand", ErrMalformed, spec.kind)
			}
			o, n, err := takeOperand(spec.kind, words)
			if err != nil {
				return nil, err
			}
			ops = append(ops, o)
			words = words[n:]
		case quantRest:
			switch {
			case spec.idLit:
				if len(words)%2 != 0 {
					return nil, fmt.Errorf("%w: unpaired id/literal operands", ErrMalformed)
				}
				for i := 0; i < len(words); i += 2 {
					ops = append(ops, IDOperand(words[i]), LiteralOperand(words[i+1]))
				}
				words = nil
			case spec.switches:
				stride := caseWords + 1
				if len(words)%stride != 0 {
					return nil, fmt.Errorf("%w: switch targets do not fit %d-word case literals", ErrMalformed, caseWords)
				}
				for i := 0; i < len(words); i += stride {
					ops = append(ops, LiteralOperand(words[i:i+caseWords]...), IDOperand(words[i+caseWords]))
				}
				words = nil
			case spec.kind == OperandLiteral:
				if len(words) > 0 {
					ops = append(ops, LiteralOperand(words...))
				}
				words = nil
			default:
				for len(words) > 0 {
					o, n, err := takeOperand(spec.kind, words)
					if err != nil {
						return nil, err
					}
					ops = append(ops, o)
					words = words[n:]
				}
			}
		}
	}
	if len(words) != 0 {
		return nil, fmt.Errorf("%w: %d trailing operand words", ErrMalformed, len(words))
	}
	return ops, nil
}

func takeOperand(kind OperandKind, words []uint32) (Operand, int, error) {
	switch kind {
	case OperandString:
		s, n := decodeString(words)
		if !terminated(words[:n]) {
			return Operand{}, 0, fmt.Errorf("%w: unterminated string", ErrMalformed)
		}
		return StringOperand(s), n, nil
	case OperandID:
		return IDOperand(words[0]), 1, nil
	default:
		return LiteralOperand(words[0]), 1, nil
	}
}

// terminated reports whether the last word holds a nul byte.
func terminated(words []uint32) bool {
	if len(words) == 0 {
		return false
	}
	last := words[len(words)-1]
	for shift := 0; shift < 32; shift += 8 {
		if byte(last>>shift) == 0 {
			return true
		}
	}
	return false
}

// decoder tracks the function and block being filled, and enough typing to
// size OpSwitch literals.
type decoder struct {
	module *Module
	fn     *Function
	block  *BasicBlock

	valueTypes map[uint32]uint32 // result id -> result type
	scalarSize map[uint32]int    // int or float type -> words per literal
}

func (d *decoder) record(inst *Instruction) {
	if inst.resultID == 0 {
		return
	}
	if inst.typeID != 0 {
		d.valueTypes[inst.resultID] = inst.typeID
	}
	switch inst.op {
	case OpTypeInt, OpTypeFloat:
		d.scalarSize[inst.resultID] = max(1, (int(inst.Word(0))+31)/32)
	}
}

// literalWords returns the literal width of values of the same type as
// value. Unknown types count as one word.
func (d *decoder) literalWords(value uint32) int {
	if n, ok := d.scalarSize[d.valueTypes[value]]; ok {
		return n
	}
	return 1
}

func (d *decoder) place(inst *Instruction) error {
	switch inst.op {
	case OpFunction:
		if d.fn != nil {
			return errors.New("nested OpFunction")
		}
		d.fn = NewFunction(inst)
		d.module.AddFunction(d.fn)
		return nil
	case OpFunctionEnd:
		if d.fn == nil {
			return errors.New("OpFunctionEnd outside a function")
		}
		if d.block != nil {
			return errors.New("unterminated block")
		}
		d.fn.end.offset = inst.offset
		d.fn = nil
		return nil
	}
	if d.fn == nil {
		if inst.op == OpFunctionParameter || inst.op == OpLabel || IsTerminator(inst.op) {
			return fmt.Errorf("%s outside a function", inst.op)
		}
		d.module.Add(inst)
		return nil
	}
	switch {
	case inst.op == OpFunctionParameter:
		if len(d.fn.blocks) > 0 {
			return errors.New("parameter after the first block")
		}
		d.fn.AddParam(inst)
	case inst.op == OpLabel:
		if d.block != nil {
			return errors.New("label inside an open block")
		}
		d.block = NewBasicBlock(inst)
		d.fn.AddBlock(d.block)
	case d.block == nil:
		return fmt.Errorf("%s outside a basic block", inst.op)
	default:
		d.block.Append(inst)
		if IsTerminator(inst.op) {
			d.block = nil
		}
	}
	return nil
}
