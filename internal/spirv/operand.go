package spirv

import (
	"slices"
	"strings"
)

// OperandKind classifies the words of an in-operand.
type OperandKind uint8

const (
	// OperandID is a single <id>.
	OperandID OperandKind = iota
	// OperandLiteral is one or more literal words.
	OperandLiteral
	// OperandString is a nul-terminated UTF-8 string padded to a word boundary.
	OperandString
)

func (k OperandKind) String() string {
	switch k {
	case OperandID:
		return "id"
	case OperandLiteral:
		return "literal"
	case OperandString:
		return "string"
	}
	return "unknown"
}

// Operand is one typed in-operand of an instruction.
type Operand struct {
	Kind  OperandKind
	Words []uint32
}

// IDOperand returns an <id> operand.
func IDOperand(id uint32) Operand {
	return Operand{Kind: OperandID, Words: []uint32{id}}
}

// LiteralOperand returns a literal operand made of the given words.
func LiteralOperand(words ...uint32) Operand {
	return Operand{Kind: OperandLiteral, Words: slices.Clone(words)}
}

// StringOperand encodes s as a literal string operand.
func StringOperand(s string) Operand {
	return Operand{Kind: OperandString, Words: encodeString(s)}
}

// SwitchTarget is one OpSwitch case. Literal holds one word per 32 bits of
// the selector width.
type SwitchTarget struct {
	Literal []uint32
	Label   uint32
}

// SwitchOperands lays out the in-operands of an OpSwitch. Each case becomes
// a literal operand followed by its label id.
func SwitchOperands(selector, def uint32, targets ...SwitchTarget) []Operand {
	ops := make([]Operand, 0, 2+2*len(targets))
	ops = append(ops, IDOperand(selector), IDOperand(def))
	for _, t := range targets {
		ops = append(ops, LiteralOperand(t.Literal...), IDOperand(t.Label))
	}
	return ops
}

// ID returns the id held by an OperandID, or 0.
func (o Operand) ID() uint32 {
	if o.Kind != OperandID || len(o.Words) == 0 {
		return 0
	}
	return o.Words[0]
}

// Word returns the first word of the operand, or 0.
func (o Operand) Word() uint32 {
	if len(o.Words) == 0 {
		return 0
	}
	return o.Words[0]
}

// AsString decodes a string operand.
func (o Operand) AsString() string {
	s, _ := decodeString(o.Words)
	return s
}

// Clone returns a deep copy of o.
func (o Operand) Clone() Operand {
	return Operand{Kind: o.Kind, Words: slices.Clone(o.Words)}
}

// Equal reports whether two operands carry the same kind and words.
func (o Operand) Equal(other Operand) bool {
	return o.Kind == other.Kind && slices.Equal(o.Words, other.Words)
}

// forEachID calls fn with a pointer to every id slot in the operand.
func (o *Operand) forEachID(fn func(*uint32)) {
	if o.Kind == OperandID && len(o.Words) > 0 {
		fn(&o.Words[0])
	}
}

// encodeString packs s into nul-terminated little-endian words.
func encodeString(s string) []uint32 {
	raw := []byte(s)
	raw = append(raw, 0)
	for len(raw)%4 != 0 {
		raw = append(raw, 0)
	}
	words := make([]uint32, 0, len(raw)/4)
	for i := 0; i < len(raw); i += 4 {
		words = append(words, uint32(raw[i])|
			uint32(raw[i+1])<<8|
			uint32(raw[i+2])<<16|
			uint32(raw[i+3])<<24)
	}
	return words
}

// decodeString reads a nul-terminated string from words and reports how many
// words it occupied. A missing terminator consumes every word.
func decodeString(words []uint32) (string, int) {
	var sb strings.Builder
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(words)
}
