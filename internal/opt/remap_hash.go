package opt

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"spvopt/internal/diag"
	"spvopt/internal/spirv"
)

const (
	// remapPrime sizes both canonical ranges.
	remapPrime uint32 = 3011
	// typeRangeStart is the first canonical id for types and constants.
	typeRangeStart uint32 = 8
	// nameRangeStart is the first canonical id for name-bound ids.
	nameRangeStart uint32 = 3019
	// overflowStart is where the free id search continues once a range is full.
	overflowStart = nameRangeStart + remapPrime

	nameHashSeed       uint32 = 1911
	nameHashMultiplier uint32 = 1009

	// cyclicTypeHash stands in for a type reached again while it is
	// still being hashed (forward pointers).
	cyclicTypeHash uint32 = 100000
)

// hashName is a polynomial rolling hash over the NFC form of name. Each
// byte is added as an unsigned value, so names holding non-ASCII bytes, or
// not already in NFC, hash differently than they would over raw signed
// bytes, and their canonical ids differ from tools that hash that way.
func hashName(name string) uint32 {
	h := nameHashSeed
	for _, c := range norm.NFC.Bytes([]byte(name)) {
		h = h*nameHashMultiplier + uint32(c)
	}
	return h
}

// typeHasher derives structural hashes for type and constant ids. Arithmetic
// wraps at 32 bits.
type typeHasher struct {
	defs     func(uint32) *spirv.Instruction
	reporter diag.Reporter
	memo     map[uint32]uint32
	active   map[uint32]bool
}

func newTypeHasher(defs func(uint32) *spirv.Instruction, r diag.Reporter) *typeHasher {
	return &typeHasher{
		defs:     defs,
		reporter: r,
		memo:     make(map[uint32]uint32),
		active:   make(map[uint32]bool),
	}
}

func (h *typeHasher) hash(id uint32) uint32 {
	if v, ok := h.memo[id]; ok {
		return v
	}
	if h.active[id] {
		return cyclicTypeHash
	}
	inst := h.defs(id)
	if inst == nil {
		diag.ReportWarning(h.reporter, diag.RemapUnknownType, diag.NoLocation,
			fmt.Sprintf("%%%d has no definition to hash", id)).Emit()
		return 0
	}
	h.active[id] = true
	v := h.compute(inst)
	delete(h.active, id)
	h.memo[id] = v
	return v
}

// weighted folds the hashes of ids with weights first, first+1, ...
func (h *typeHasher) weighted(ids []uint32, first uint32) uint32 {
	var v uint32
	for i, id := range ids {
		v += (first + uint32(i)) * h.hash(id)
	}
	return v
}

func (h *typeHasher) compute(inst *spirv.Instruction) uint32 {
	w := inst.Word
	switch inst.Opcode() {
	case spirv.OpTypeVoid:
		return 0
	case spirv.OpTypeBool:
		return 1
	case spirv.OpTypeInt:
		return 3 + w(1)
	case spirv.OpTypeFloat:
		return 5
	case spirv.OpTypeVector:
		return 6 + h.hash(inst.OperandID(0))*(w(1)-1)
	case spirv.OpTypeMatrix:
		return 30 + h.hash(inst.OperandID(0))*(w(1)-1)
	case spirv.OpTypeImage:
		return 120 + h.hash(inst.OperandID(0)) + w(1) +
			w(2)*8*16 + w(3)*4*16 + w(4)*2*16 + w(5)*16
	case spirv.OpTypeSampler:
		return 500
	case spirv.OpTypeSampledImage:
		return 502
	case spirv.OpTypeArray:
		return 501 + h.hash(inst.OperandID(0))*h.arrayLength(inst.OperandID(1))
	case spirv.OpTypeRuntimeArray:
		return 5000 + h.hash(inst.OperandID(0))
	case spirv.OpTypeStruct:
		return 10000 + h.weighted(inIDs(inst), 1)
	case spirv.OpTypeOpaque:
		return 6000 + w(0)
	case spirv.OpTypePointer:
		return 100000 + h.hash(inst.OperandID(1))
	case spirv.OpTypeFunction:
		return 200000 + h.weighted(inIDs(inst), 1)
	case spirv.OpTypeEvent:
		return 300000
	case spirv.OpTypeDeviceEvent:
		return 300001
	case spirv.OpTypeReserveID:
		return 300002
	case spirv.OpTypeQueue:
		return 300003
	case spirv.OpTypePipe:
		return 300004
	case spirv.OpConstantTrue:
		return 300007
	case spirv.OpConstantFalse:
		return 300008
	case spirv.OpTypeRayQueryKHR:
		return 300009
	case spirv.OpTypeAccelerationStructureKHR:
		return 300010
	case spirv.OpConstantComposite:
		return 300011 + h.hash(inst.TypeID()) + h.weighted(inIDs(inst), 2)
	case spirv.OpConstant:
		return 400011 + h.hash(inst.TypeID()) + weightedWords(inst, 2)
	case spirv.OpConstantNull:
		return 500009 + h.hash(inst.TypeID())
	case spirv.OpConstantSampler:
		return 600011 + h.hash(inst.TypeID()) + weightedWords(inst, 2)
	}
	diag.ReportWarning(h.reporter, diag.RemapUnknownType, diag.At(inst),
		fmt.Sprintf("cannot hash %s", inst.Opcode())).Emit()
	return 0
}

// arrayLength returns the literal value of a length constant. Lengths that
// are not plain constants fold as zero.
func (h *typeHasher) arrayLength(id uint32) uint32 {
	def := h.defs(id)
	if def == nil || def.Opcode() != spirv.OpConstant {
		return 0
	}
	return def.Word(0)
}

func inIDs(inst *spirv.Instruction) []uint32 {
	ids := make([]uint32, 0, inst.NumOperands())
	for _, o := range inst.Operands() {
		if o.Kind == spirv.OperandID {
			ids = append(ids, o.ID())
		}
	}
	return ids
}

// weightedWords folds every literal word of inst with weights first, first+1, ...
func weightedWords(inst *spirv.Instruction, first uint32) uint32 {
	var v uint32
	weight := first
	for _, o := range inst.Operands() {
		for _, word := range o.Words {
			v += weight * word
			weight++
		}
	}
	return v
}
