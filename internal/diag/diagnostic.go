package diag

import (
	"fmt"

	"spvopt/internal/spirv"
)

// Location points at an instruction of the input binary. Offset is the word
// offset of the instruction, or -1 when it was synthesized or the whole
// module is meant.
type Location struct {
	Offset int      `msgpack:"offset"`
	Opcode spirv.Op `msgpack:"opcode"`
	ID     uint32   `msgpack:"id"`
}

// NoLocation refers to the module as a whole.
var NoLocation = Location{Offset: -1}

// At returns the location of inst.
func At(inst *spirv.Instruction) Location {
	if inst == nil {
		return NoLocation
	}
	return Location{Offset: inst.Offset(), Opcode: inst.Opcode(), ID: inst.ResultID()}
}

// IsZero reports whether l names no instruction.
func (l Location) IsZero() bool {
	return l.Offset < 0 && l.Opcode == 0 && l.ID == 0
}

func (l Location) String() string {
	var s string
	if l.Offset >= 0 {
		s = fmt.Sprintf("word %d", l.Offset)
	} else {
		s = "module"
	}
	if l.Opcode != 0 {
		s += " " + l.Opcode.String()
	}
	if l.ID != 0 {
		s += fmt.Sprintf(" %%%d", l.ID)
	}
	return s
}

type Note struct {
	Loc Location `msgpack:"loc"`
	Msg string   `msgpack:"msg"`
}

type Diagnostic struct {
	Severity Severity `msgpack:"severity"`
	Code     Code     `msgpack:"code"`
	Message  string   `msgpack:"message"`
	Primary  Location `msgpack:"primary"`
	Notes    []Note   `msgpack:"notes,omitempty"`
}
