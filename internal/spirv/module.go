package spirv

import (
	"errors"
	"slices"
)

// MagicNumber starts every SPIR-V binary.
const MagicNumber uint32 = 0x07230203

// MaxIDBound is the largest id bound TakeNextID will produce.
const MaxIDBound uint32 = 0x3FFFFF

// ErrIDOverflow is returned when no further id can be allocated.
var ErrIDOverflow = errors.New("spirv: id bound limit reached")

// Header is the five-word module header.
type Header struct {
	Magic     uint32
	Version   uint32
	Generator uint32
	Bound     uint32
	Schema    uint32
}

// Section identifies a module-scope region of the logical layout.
type Section uint8

// Sections in logical layout order. Function bodies are not a section:
// their instructions belong to functions and blocks.
const (
	SectionNone Section = iota
	SectionCapabilities
	SectionExtensions
	SectionExtInstImports
	SectionMemoryModel
	SectionEntryPoints
	SectionExecutionModes
	SectionDebugSource
	SectionDebugNames
	SectionDebugModuleProcessed
	SectionAnnotations
	SectionTypesValues

	numSections
)

var sectionNames = [...]string{
	SectionNone:                 "none",
	SectionCapabilities:         "capabilities",
	SectionExtensions:           "extensions",
	SectionExtInstImports:       "ext-inst-imports",
	SectionMemoryModel:          "memory-model",
	SectionEntryPoints:          "entry-points",
	SectionExecutionModes:       "execution-modes",
	SectionDebugSource:          "debug-source",
	SectionDebugNames:           "debug-names",
	SectionDebugModuleProcessed: "debug-module-processed",
	SectionAnnotations:          "annotations",
	SectionTypesValues:          "types-values",
}

func (s Section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "section(" + itoa(uint32(s)) + ")"
}

// SectionFor returns the module-scope section an opcode belongs to.
// Anything else found before the first OpFunction lands in SectionTypesValues.
func SectionFor(op Op) Section {
	switch op {
	case OpCapability:
		return SectionCapabilities
	case OpExtension:
		return SectionExtensions
	case OpExtInstImport:
		return SectionExtInstImports
	case OpMemoryModel:
		return SectionMemoryModel
	case OpEntryPoint:
		return SectionEntryPoints
	case OpExecutionMode, OpExecutionModeID:
		return SectionExecutionModes
	case OpString, OpSource, OpSourceContinued, OpSourceExtension:
		return SectionDebugSource
	case OpName, OpMemberName:
		return SectionDebugNames
	case OpModuleProcessed:
		return SectionDebugModuleProcessed
	}
	if IsDecoration(op) {
		return SectionAnnotations
	}
	return SectionTypesValues
}

// Module is a decoded SPIR-V module.
type Module struct {
	header    Header
	sections  [numSections][]*Instruction
	functions []*Function
}

// NewModule creates an empty module with bound 1.
func NewModule(v Version) *Module {
	return &Module{header: Header{
		Magic:   MagicNumber,
		Version: v.Word(),
		Bound:   1,
	}}
}

// Header returns a copy of the header.
func (m *Module) Header() Header { return m.header }

// Version returns the SPIR-V version.
func (m *Module) Version() Version { return VersionFromWord(m.header.Version) }

// SetGenerator sets the generator magic.
func (m *Module) SetGenerator(g uint32) { m.header.Generator = g }

// Bound returns the id bound.
func (m *Module) Bound() uint32 { return m.header.Bound }

// SetBound stores a new id bound.
func (m *Module) SetBound(b uint32) { m.header.Bound = b }

// TakeNextID allocates a fresh id by raising the bound.
func (m *Module) TakeNextID() (uint32, error) {
	id := m.header.Bound
	if id == 0 {
		id = 1
	}
	if id >= MaxIDBound {
		return 0, ErrIDOverflow
	}
	m.header.Bound = id + 1
	return id, nil
}

// ComputeIDBound returns one past the largest id defined or referenced.
func (m *Module) ComputeIDBound() uint32 {
	var maxID uint32
	m.ForEachInst(func(inst *Instruction) {
		maxID = max(maxID, inst.resultID)
		inst.ForEachID(func(p *uint32) {
			maxID = max(maxID, *p)
		})
	})
	return maxID + 1
}

// Section returns the instructions of s. Do not modify the slice.
func (m *Module) Section(s Section) []*Instruction { return m.sections[s] }

// Capabilities returns the OpCapability instructions.
func (m *Module) Capabilities() []*Instruction { return m.sections[SectionCapabilities] }

// Extensions returns the OpExtension instructions.
func (m *Module) Extensions() []*Instruction { return m.sections[SectionExtensions] }

// ExtInstImports returns the OpExtInstImport instructions.
func (m *Module) ExtInstImports() []*Instruction { return m.sections[SectionExtInstImports] }

// MemoryModel returns the OpMemoryModel instruction, or nil.
func (m *Module) MemoryModel() *Instruction {
	if s := m.sections[SectionMemoryModel]; len(s) > 0 {
		return s[0]
	}
	return nil
}

// EntryPoints returns the OpEntryPoint instructions.
func (m *Module) EntryPoints() []*Instruction { return m.sections[SectionEntryPoints] }

// ExecutionModes returns the OpExecutionMode(Id) instructions.
func (m *Module) ExecutionModes() []*Instruction { return m.sections[SectionExecutionModes] }

// DebugNames returns the OpName and OpMemberName instructions.
func (m *Module) DebugNames() []*Instruction { return m.sections[SectionDebugNames] }

// Annotations returns the decoration instructions.
func (m *Module) Annotations() []*Instruction { return m.sections[SectionAnnotations] }

// TypesValues returns types, constants, global variables and module-scope
// debug records in declaration order.
func (m *Module) TypesValues() []*Instruction { return m.sections[SectionTypesValues] }

// Functions returns the functions in layout order.
func (m *Module) Functions() []*Function { return m.functions }

// AddInstruction appends inst to section s.
func (m *Module) AddInstruction(s Section, inst *Instruction) {
	if s == SectionNone || s >= numSections {
		panic("spirv: AddInstruction: invalid section " + s.String())
	}
	inst.mustBeDetached("Module.AddInstruction")
	inst.section = s
	m.sections[s] = append(m.sections[s], inst)
}

// Add appends inst to the section its opcode belongs to.
func (m *Module) Add(inst *Instruction) {
	m.AddInstruction(SectionFor(inst.op), inst)
}

// AddGlobal appends inst to the types/values section.
func (m *Module) AddGlobal(inst *Instruction) {
	m.AddInstruction(SectionTypesValues, inst)
}

// InsertGlobalAfter places inst right after anchor in the types/values
// section. It returns false when anchor is not there.
func (m *Module) InsertGlobalAfter(anchor, inst *Instruction) bool {
	s := m.sections[SectionTypesValues]
	idx := slices.Index(s, anchor)
	if idx < 0 {
		return false
	}
	inst.mustBeDetached("Module.InsertGlobalAfter")
	inst.section = SectionTypesValues
	m.sections[SectionTypesValues] = slices.Insert(s, idx+1, inst)
	return true
}

// RemoveGlobal detaches a module-scope instruction from its section.
func (m *Module) RemoveGlobal(inst *Instruction) bool {
	s := inst.section
	if s == SectionNone {
		return false
	}
	idx := slices.Index(m.sections[s], inst)
	if idx < 0 {
		return false
	}
	m.sections[s] = slices.Delete(m.sections[s], idx, idx+1)
	inst.section = SectionNone
	return true
}

// AddFunction appends a detached function.
func (m *Module) AddFunction(f *Function) {
	if f.module != nil {
		panic("spirv: AddFunction: function already owned")
	}
	f.module = m
	m.functions = append(m.functions, f)
}

// FunctionByID returns the function whose OpFunction defines id.
func (m *Module) FunctionByID(id uint32) *Function {
	for _, f := range m.functions {
		if f.ResultID() == id {
			return f
		}
	}
	return nil
}

// ForEachInst visits every instruction in logical layout order.
func (m *Module) ForEachInst(fn func(*Instruction)) {
	for s := SectionCapabilities; s < numSections; s++ {
		for _, inst := range m.sections[s] {
			fn(inst)
		}
	}
	for _, f := range m.functions {
		f.ForEachInst(fn)
	}
}

// HasCapability reports whether the module declares c.
func (m *Module) HasCapability(c Capability) bool {
	for _, inst := range m.sections[SectionCapabilities] {
		if Capability(inst.Word(0)) == c {
			return true
		}
	}
	return false
}

// ExtInstImportName returns the name of the OpExtInstImport defining id.
func (m *Module) ExtInstImportName(id uint32) (string, bool) {
	for _, inst := range m.sections[SectionExtInstImports] {
		if inst.resultID == id && inst.NumOperands() > 0 {
			return inst.Operand(0).AsString(), true
		}
	}
	return "", false
}

// EntryPointFunction returns the function id named by an OpEntryPoint.
func EntryPointFunction(ep *Instruction) uint32 { return ep.OperandID(1) }

// EntryPointName returns the name of an OpEntryPoint.
func EntryPointName(ep *Instruction) string {
	if ep.NumOperands() < 3 {
		return ""
	}
	return ep.Operand(2).AsString()
}

// EntryPointInterfaceStart is the operand index of the first interface id.
const EntryPointInterfaceStart = 3
