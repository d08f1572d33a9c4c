package spirv

import "strconv"

// StorageClass is the storage class operand of pointers and variables.
type StorageClass uint32

// Storage classes.
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12
)

var storageClassNames = map[StorageClass]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
	8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
	12: "StorageBuffer",
}

func (sc StorageClass) String() string {
	if s, ok := storageClassNames[sc]; ok {
		return s
	}
	return itoa(uint32(sc))
}

// Capability is an OpCapability operand.
type Capability uint32

// Capabilities referenced by the optimizer.
const (
	CapabilityMatrix    Capability = 0
	CapabilityShader    Capability = 1
	CapabilityGeometry  Capability = 2
	CapabilityAddresses Capability = 4
	CapabilityLinkage   Capability = 5
	CapabilityKernel    Capability = 6
	CapabilityFloat16   Capability = 9
	CapabilityFloat64   Capability = 10
	CapabilityInt64     Capability = 11
	CapabilityInt16     Capability = 22
	CapabilityInt8      Capability = 39
)

var capabilityNames = map[Capability]string{
	0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation",
	4: "Addresses", 5: "Linkage", 6: "Kernel", 9: "Float16",
	10: "Float64", 11: "Int64", 22: "Int16", 39: "Int8",
}

func (c Capability) String() string {
	if s, ok := capabilityNames[c]; ok {
		return s
	}
	return itoa(uint32(c))
}

// Decoration is an OpDecorate operand.
type Decoration uint32

// Common decorations.
const (
	DecorationRelaxedPrecision Decoration = 0
	DecorationSpecID           Decoration = 1
	DecorationBlock            Decoration = 2
	DecorationRowMajor         Decoration = 4
	DecorationColMajor         Decoration = 5
	DecorationArrayStride      Decoration = 6
	DecorationMatrixStride     Decoration = 7
	DecorationBuiltIn          Decoration = 11
	DecorationFlat             Decoration = 14
	DecorationRestrict         Decoration = 19
	DecorationAliased          Decoration = 20
	DecorationVolatile         Decoration = 21
	DecorationLocation         Decoration = 30
	DecorationBinding          Decoration = 33
	DecorationDescriptorSet    Decoration = 34
	DecorationOffset           Decoration = 35
)

var decorationNames = map[Decoration]string{
	0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock",
	4: "RowMajor", 5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride",
	11: "BuiltIn", 14: "Flat", 19: "Restrict", 20: "Aliased",
	21: "Volatile", 30: "Location", 33: "Binding", 34: "DescriptorSet",
	35: "Offset",
}

func (d Decoration) String() string {
	if s, ok := decorationNames[d]; ok {
		return s
	}
	return itoa(uint32(d))
}

// ExecutionModel is the first operand of OpEntryPoint.
type ExecutionModel uint32

// Execution models.
const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
	ExecutionModelKernel    ExecutionModel = 6
)

var executionModelNames = map[ExecutionModel]string{
	0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
}

func (e ExecutionModel) String() string {
	if s, ok := executionModelNames[e]; ok {
		return s
	}
	return itoa(uint32(e))
}

// AddressingModel is the first operand of OpMemoryModel.
type AddressingModel uint32

// MemoryModel is the second operand of OpMemoryModel.
type MemoryModel uint32

// Addressing and memory models.
const (
	AddressingModelLogical AddressingModel = 0
	MemoryModelGLSL450     MemoryModel     = 1
	MemoryModelVulkan      MemoryModel     = 3
)

// FunctionControl is the literal operand of OpFunction.
type FunctionControl uint32

// FunctionControlNone is the empty function control mask.
const FunctionControlNone FunctionControl = 0

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
