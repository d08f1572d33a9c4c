package spirv

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// Words encodes the module into host-order words. The header bound is
// written as stored.
func (m *Module) Words() ([]uint32, error) {
	out := make([]uint32, 0, 256)
	out = append(out,
		m.header.Magic,
		m.header.Version,
		m.header.Generator,
		m.header.Bound,
		m.header.Schema,
	)
	var err error
	m.ForEachInst(func(inst *Instruction) {
		if err != nil {
			return
		}
		out, err = inst.appendWords(out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Encode returns the little-endian binary form of the module.
func (m *Module) Encode() ([]byte, error) {
	words, err := m.Words()
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	return data, nil
}

// Encode returns the words of a single instruction.
func (i *Instruction) Encode() ([]uint32, error) {
	return i.appendWords(nil)
}

func (i *Instruction) appendWords(out []uint32) ([]uint32, error) {
	wc, err := safecast.Conv[uint16](i.WordCount())
	if err != nil {
		return nil, fmt.Errorf("spirv: %s: instruction too long: %w", i.op, err)
	}
	out = append(out, uint32(wc)<<16|uint32(i.op))
	if i.typeID != 0 {
		out = append(out, i.typeID)
	}
	if i.resultID != 0 {
		out = append(out, i.resultID)
	}
	for _, o := range i.operands {
		out = append(out, o.Words...)
	}
	return out, nil
}
