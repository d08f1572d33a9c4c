package spirv

import "strings"

// shape says which of the result type and result id slots an opcode has.
type shape uint8

const (
	shapeNone   shape = iota // no result
	shapeResult              // result id only
	shapeTyped               // result type and result id
)

type quantifier uint8

const (
	quantOne quantifier = iota
	quantOptional
	quantRest
)

// operandSpec is one token of a layout string.
//
//	I, L, S    one id, literal word or string
//	I? L? S?   optional
//	I* S*      one operand per remaining id or string
//	L*         one literal operand holding every remaining word
//	P          OpSwitch cases: a literal as wide as the selector, then a label
//	IL*        alternating id and literal operands
type operandSpec struct {
	kind     OperandKind
	quant    quantifier
	idLit    bool
	switches bool
}

type layout struct {
	name     string
	shape    shape
	operands []operandSpec
}

func (l layout) hasType() bool   { return l.shape == shapeTyped }
func (l layout) hasResult() bool { return l.shape != shapeNone }

type grammarEntry struct {
	op     Op
	name   string
	shape  shape
	layout string
}

var grammar = buildGrammar([]grammarEntry{
	{OpNop, "OpNop", shapeNone, ""},
	{OpUndef, "OpUndef", shapeTyped, ""},
	{OpSourceContinued, "OpSourceContinued", shapeNone, "S"},
	{OpSource, "OpSource", shapeNone, "L L I? S?"},
	{OpSourceExtension, "OpSourceExtension", shapeNone, "S"},
	{OpName, "OpName", shapeNone, "I S"},
	{OpMemberName, "OpMemberName", shapeNone, "I L S"},
	{OpString, "OpString", shapeResult, "S"},
	{OpLine, "OpLine", shapeNone, "I L L"},
	{OpExtension, "OpExtension", shapeNone, "S"},
	{OpExtInstImport, "OpExtInstImport", shapeResult, "S"},
	{OpExtInst, "OpExtInst", shapeTyped, "I L I*"},
	{OpMemoryModel, "OpMemoryModel", shapeNone, "L L"},
	{OpEntryPoint, "OpEntryPoint", shapeNone, "L I S I*"},
	{OpExecutionMode, "OpExecutionMode", shapeNone, "I L L*"},
	{OpCapability, "OpCapability", shapeNone, "L"},

	{OpTypeVoid, "OpTypeVoid", shapeResult, ""},
	{OpTypeBool, "OpTypeBool", shapeResult, ""},
	{OpTypeInt, "OpTypeInt", shapeResult, "L L"},
	{OpTypeFloat, "OpTypeFloat", shapeResult, "L L?"},
	{OpTypeVector, "OpTypeVector", shapeResult, "I L"},
	{OpTypeMatrix, "OpTypeMatrix", shapeResult, "I L"},
	{OpTypeImage, "OpTypeImage", shapeResult, "I L L L L L L L?"},
	{OpTypeSampler, "OpTypeSampler", shapeResult, ""},
	{OpTypeSampledImage, "OpTypeSampledImage", shapeResult, "I"},
	{OpTypeArray, "OpTypeArray", shapeResult, "I I"},
	{OpTypeRuntimeArray, "OpTypeRuntimeArray", shapeResult, "I"},
	{OpTypeStruct, "OpTypeStruct", shapeResult, "I*"},
	{OpTypeOpaque, "OpTypeOpaque", shapeResult, "S"},
	{OpTypePointer, "OpTypePointer", shapeResult, "L I"},
	{OpTypeFunction, "OpTypeFunction", shapeResult, "I I*"},
	{OpTypeEvent, "OpTypeEvent", shapeResult, ""},
	{OpTypeDeviceEvent, "OpTypeDeviceEvent", shapeResult, ""},
	{OpTypeReserveID, "OpTypeReserveId", shapeResult, ""},
	{OpTypeQueue, "OpTypeQueue", shapeResult, ""},
	{OpTypePipe, "OpTypePipe", shapeResult, "L"},
	{OpTypeForwardPointer, "OpTypeForwardPointer", shapeNone, "I L"},

	{OpConstantTrue, "OpConstantTrue", shapeTyped, ""},
	{OpConstantFalse, "OpConstantFalse", shapeTyped, ""},
	{OpConstant, "OpConstant", shapeTyped, "L*"},
	{OpConstantComposite, "OpConstantComposite", shapeTyped, "I*"},
	{OpConstantSampler, "OpConstantSampler", shapeTyped, "L L L"},
	{OpConstantNull, "OpConstantNull", shapeTyped, ""},
	{OpSpecConstantTrue, "OpSpecConstantTrue", shapeTyped, ""},
	{OpSpecConstantFalse, "OpSpecConstantFalse", shapeTyped, ""},
	{OpSpecConstant, "OpSpecConstant", shapeTyped, "L*"},
	{OpSpecConstantComposite, "OpSpecConstantComposite", shapeTyped, "I*"},
	// operands after the opcode literal follow the embedded opcode
	{OpSpecConstantOp, "OpSpecConstantOp", shapeTyped, "L"},

	{OpFunction, "OpFunction", shapeTyped, "L I"},
	{OpFunctionParameter, "OpFunctionParameter", shapeTyped, ""},
	{OpFunctionEnd, "OpFunctionEnd", shapeNone, ""},
	{OpFunctionCall, "OpFunctionCall", shapeTyped, "I I*"},

	{OpVariable, "OpVariable", shapeTyped, "L I?"},
	{OpImageTexelPointer, "OpImageTexelPointer", shapeTyped, "I I I"},
	{OpLoad, "OpLoad", shapeTyped, "I L*"},
	{OpStore, "OpStore", shapeNone, "I I L*"},
	{OpCopyMemory, "OpCopyMemory", shapeNone, "I I L*"},
	{OpCopyMemorySized, "OpCopyMemorySized", shapeNone, "I I I L*"},
	{OpAccessChain, "OpAccessChain", shapeTyped, "I I*"},
	{OpInBoundsAccessChain, "OpInBoundsAccessChain", shapeTyped, "I I*"},
	{OpPtrAccessChain, "OpPtrAccessChain", shapeTyped, "I I I*"},
	{OpArrayLength, "OpArrayLength", shapeTyped, "I L"},
	{OpGenericPtrMemSemantics, "OpGenericPtrMemSemantics", shapeTyped, "I"},
	{OpInBoundsPtrAccessChain, "OpInBoundsPtrAccessChain", shapeTyped, "I I I*"},

	{OpDecorate, "OpDecorate", shapeNone, "I L L*"},
	{OpMemberDecorate, "OpMemberDecorate", shapeNone, "I L L L*"},
	{OpDecorationGroup, "OpDecorationGroup", shapeResult, ""},
	{OpGroupDecorate, "OpGroupDecorate", shapeNone, "I I*"},
	{OpGroupMemberDecorate, "OpGroupMemberDecorate", shapeNone, "I IL*"},

	{OpVectorExtractDynamic, "OpVectorExtractDynamic", shapeTyped, "I I"},
	{OpVectorInsertDynamic, "OpVectorInsertDynamic", shapeTyped, "I I I"},
	{OpVectorShuffle, "OpVectorShuffle", shapeTyped, "I I L*"},
	{OpCompositeConstruct, "OpCompositeConstruct", shapeTyped, "I*"},
	{OpCompositeExtract, "OpCompositeExtract", shapeTyped, "I L*"},
	{OpCompositeInsert, "OpCompositeInsert", shapeTyped, "I I L*"},
	{OpCopyObject, "OpCopyObject", shapeTyped, "I"},
	{OpTranspose, "OpTranspose", shapeTyped, "I"},

	{OpSampledImage, "OpSampledImage", shapeTyped, "I I"},
	{OpImageSampleImplicitLod, "OpImageSampleImplicitLod", shapeTyped, "I I L? I*"},
	{OpImageSampleExplicitLod, "OpImageSampleExplicitLod", shapeTyped, "I I L I*"},
	{OpImageSampleDrefImplicitLod, "OpImageSampleDrefImplicitLod", shapeTyped, "I I I L? I*"},
	{OpImageSampleDrefExplicitLod, "OpImageSampleDrefExplicitLod", shapeTyped, "I I I L I*"},
	{OpImageSampleProjImplicitLod, "OpImageSampleProjImplicitLod", shapeTyped, "I I L? I*"},
	{OpImageSampleProjExplicitLod, "OpImageSampleProjExplicitLod", shapeTyped, "I I L I*"},
	{OpImageSampleProjDrefImplicitLod, "OpImageSampleProjDrefImplicitLod", shapeTyped, "I I I L? I*"},
	{OpImageSampleProjDrefExplicitLod, "OpImageSampleProjDrefExplicitLod", shapeTyped, "I I I L I*"},
	{OpImageFetch, "OpImageFetch", shapeTyped, "I I L? I*"},
	{OpImageGather, "OpImageGather", shapeTyped, "I I I L? I*"},
	{OpImageDrefGather, "OpImageDrefGather", shapeTyped, "I I I L? I*"},
	{OpImageRead, "OpImageRead", shapeTyped, "I I L? I*"},
	{OpImageWrite, "OpImageWrite", shapeNone, "I I I L? I*"},
	{OpImage, "OpImage", shapeTyped, "I"},
	{OpImageQueryFormat, "OpImageQueryFormat", shapeTyped, "I"},
	{OpImageQueryOrder, "OpImageQueryOrder", shapeTyped, "I"},
	{OpImageQuerySizeLod, "OpImageQuerySizeLod", shapeTyped, "I I"},
	{OpImageQuerySize, "OpImageQuerySize", shapeTyped, "I"},
	{OpImageQueryLod, "OpImageQueryLod", shapeTyped, "I I"},
	{OpImageQueryLevels, "OpImageQueryLevels", shapeTyped, "I"},
	{OpImageQuerySamples, "OpImageQuerySamples", shapeTyped, "I"},

	{OpConvertFToU, "OpConvertFToU", shapeTyped, "I"},
	{OpConvertFToS, "OpConvertFToS", shapeTyped, "I"},
	{OpConvertSToF, "OpConvertSToF", shapeTyped, "I"},
	{OpConvertUToF, "OpConvertUToF", shapeTyped, "I"},
	{OpUConvert, "OpUConvert", shapeTyped, "I"},
	{OpSConvert, "OpSConvert", shapeTyped, "I"},
	{OpFConvert, "OpFConvert", shapeTyped, "I"},
	{OpQuantizeToF16, "OpQuantizeToF16", shapeTyped, "I"},
	{OpConvertPtrToU, "OpConvertPtrToU", shapeTyped, "I"},
	{OpSatConvertSToU, "OpSatConvertSToU", shapeTyped, "I"},
	{OpSatConvertUToS, "OpSatConvertUToS", shapeTyped, "I"},
	{OpConvertUToPtr, "OpConvertUToPtr", shapeTyped, "I"},
	{OpPtrCastToGeneric, "OpPtrCastToGeneric", shapeTyped, "I"},
	{OpGenericCastToPtr, "OpGenericCastToPtr", shapeTyped, "I"},
	{OpGenericCastToPtrExplicit, "OpGenericCastToPtrExplicit", shapeTyped, "I L"},
	{OpBitcast, "OpBitcast", shapeTyped, "I"},

	{OpSNegate, "OpSNegate", shapeTyped, "I"},
	{OpFNegate, "OpFNegate", shapeTyped, "I"},
	{OpIAdd, "OpIAdd", shapeTyped, "I I"},
	{OpFAdd, "OpFAdd", shapeTyped, "I I"},
	{OpISub, "OpISub", shapeTyped, "I I"},
	{OpFSub, "OpFSub", shapeTyped, "I I"},
	{OpIMul, "OpIMul", shapeTyped, "I I"},
	{OpFMul, "OpFMul", shapeTyped, "I I"},
	{OpUDiv, "OpUDiv", shapeTyped, "I I"},
	{OpSDiv, "OpSDiv", shapeTyped, "I I"},
	{OpFDiv, "OpFDiv", shapeTyped, "I I"},
	{OpUMod, "OpUMod", shapeTyped, "I I"},
	{OpSRem, "OpSRem", shapeTyped, "I I"},
	{OpSMod, "OpSMod", shapeTyped, "I I"},
	{OpFRem, "OpFRem", shapeTyped, "I I"},
	{OpFMod, "OpFMod", shapeTyped, "I I"},
	{OpVectorTimesScalar, "OpVectorTimesScalar", shapeTyped, "I I"},
	{OpMatrixTimesScalar, "OpMatrixTimesScalar", shapeTyped, "I I"},
	{OpVectorTimesMatrix, "OpVectorTimesMatrix", shapeTyped, "I I"},
	{OpMatrixTimesVector, "OpMatrixTimesVector", shapeTyped, "I I"},
	{OpMatrixTimesMatrix, "OpMatrixTimesMatrix", shapeTyped, "I I"},
	{OpOuterProduct, "OpOuterProduct", shapeTyped, "I I"},
	{OpDot, "OpDot", shapeTyped, "I I"},
	{OpIAddCarry, "OpIAddCarry", shapeTyped, "I I"},
	{OpISubBorrow, "OpISubBorrow", shapeTyped, "I I"},
	{OpUMulExtended, "OpUMulExtended", shapeTyped, "I I"},
	{OpSMulExtended, "OpSMulExtended", shapeTyped, "I I"},

	{OpAny, "OpAny", shapeTyped, "I"},
	{OpAll, "OpAll", shapeTyped, "I"},
	{OpIsNan, "OpIsNan", shapeTyped, "I"},
	{OpIsInf, "OpIsInf", shapeTyped, "I"},
	{OpIsFinite, "OpIsFinite", shapeTyped, "I"},
	{OpIsNormal, "OpIsNormal", shapeTyped, "I"},
	{OpSignBitSet, "OpSignBitSet", shapeTyped, "I"},
	{OpLessOrGreater, "OpLessOrGreater", shapeTyped, "I I"},
	{OpOrdered, "OpOrdered", shapeTyped, "I I"},
	{OpUnordered, "OpUnordered", shapeTyped, "I I"},
	{OpLogicalEqual, "OpLogicalEqual", shapeTyped, "I I"},
	{OpLogicalNotEqual, "OpLogicalNotEqual", shapeTyped, "I I"},
	{OpLogicalOr, "OpLogicalOr", shapeTyped, "I I"},
	{OpLogicalAnd, "OpLogicalAnd", shapeTyped, "I I"},
	{OpLogicalNot, "OpLogicalNot", shapeTyped, "I"},
	{OpSelect, "OpSelect", shapeTyped, "I I I"},
	{OpIEqual, "OpIEqual", shapeTyped, "I I"},
	{OpINotEqual, "OpINotEqual", shapeTyped, "I I"},
	{OpUGreaterThan, "OpUGreaterThan", shapeTyped, "I I"},
	{OpSGreaterThan, "OpSGreaterThan", shapeTyped, "I I"},
	{OpUGreaterThanEqual, "OpUGreaterThanEqual", shapeTyped, "I I"},
	{OpSGreaterThanEqual, "OpSGreaterThanEqual", shapeTyped, "I I"},
	{OpULessThan, "OpULessThan", shapeTyped, "I I"},
	{OpSLessThan, "OpSLessThan", shapeTyped, "I I"},
	{OpULessThanEqual, "OpULessThanEqual", shapeTyped, "I I"},
	{OpSLessThanEqual, "OpSLessThanEqual", shapeTyped, "I I"},
	{OpFOrdEqual, "OpFOrdEqual", shapeTyped, "I I"},
	{OpFUnordEqual, "OpFUnordEqual", shapeTyped, "I I"},
	{OpFOrdNotEqual, "OpFOrdNotEqual", shapeTyped, "I I"},
	{OpFUnordNotEqual, "OpFUnordNotEqual", shapeTyped, "I I"},
	{OpFOrdLessThan, "OpFOrdLessThan", shapeTyped, "I I"},
	{OpFUnordLessThan, "OpFUnordLessThan", shapeTyped, "I I"},
	{OpFOrdGreaterThan, "OpFOrdGreaterThan", shapeTyped, "I I"},
	{OpFUnordGreaterThan, "OpFUnordGreaterThan", shapeTyped, "I I"},
	{OpFOrdLessThanEqual, "OpFOrdLessThanEqual", shapeTyped, "I I"},
	{OpFUnordLessThanEqual, "OpFUnordLessThanEqual", shapeTyped, "I I"},
	{OpFOrdGreaterThanEqual, "OpFOrdGreaterThanEqual", shapeTyped, "I I"},
	{OpFUnordGreaterThanEqual, "OpFUnordGreaterThanEqual", shapeTyped, "I I"},

	{OpShiftRightLogical, "OpShiftRightLogical", shapeTyped, "I I"},
	{OpShiftRightArithmetic, "OpShiftRightArithmetic", shapeTyped, "I I"},
	{OpShiftLeftLogical, "OpShiftLeftLogical", shapeTyped, "I I"},
	{OpBitwiseOr, "OpBitwiseOr", shapeTyped, "I I"},
	{OpBitwiseXor, "OpBitwiseXor", shapeTyped, "I I"},
	{OpBitwiseAnd, "OpBitwiseAnd", shapeTyped, "I I"},
	{OpNot, "OpNot", shapeTyped, "I"},
	{OpBitFieldInsert, "OpBitFieldInsert", shapeTyped, "I I I I"},
	{OpBitFieldSExtract, "OpBitFieldSExtract", shapeTyped, "I I I"},
	{OpBitFieldUExtract, "OpBitFieldUExtract", shapeTyped, "I I I"},
	{OpBitReverse, "OpBitReverse", shapeTyped, "I"},
	{OpBitCount, "OpBitCount", shapeTyped, "I"},

	{OpDPdx, "OpDPdx", shapeTyped, "I"},
	{OpDPdy, "OpDPdy", shapeTyped, "I"},
	{OpFwidth, "OpFwidth", shapeTyped, "I"},
	{OpDPdxFine, "OpDPdxFine", shapeTyped, "I"},
	{OpDPdyFine, "OpDPdyFine", shapeTyped, "I"},
	{OpFwidthFine, "OpFwidthFine", shapeTyped, "I"},
	{OpDPdxCoarse, "OpDPdxCoarse", shapeTyped, "I"},
	{OpDPdyCoarse, "OpDPdyCoarse", shapeTyped, "I"},
	{OpFwidthCoarse, "OpFwidthCoarse", shapeTyped, "I"},

	{OpEmitVertex, "OpEmitVertex", shapeNone, ""},
	{OpEndPrimitive, "OpEndPrimitive", shapeNone, ""},

	{OpControlBarrier, "OpControlBarrier", shapeNone, "I I I"},
	{OpMemoryBarrier, "OpMemoryBarrier", shapeNone, "I I"},
	{OpAtomicLoad, "OpAtomicLoad", shapeTyped, "I I I"},
	{OpAtomicStore, "OpAtomicStore", shapeNone, "I I I I"},
	{OpAtomicExchange, "OpAtomicExchange", shapeTyped, "I I I I"},
	{OpAtomicCompareExchange, "OpAtomicCompareExchange", shapeTyped, "I I I I I I"},
	{OpAtomicIIncrement, "OpAtomicIIncrement", shapeTyped, "I I I"},
	{OpAtomicIDecrement, "OpAtomicIDecrement", shapeTyped, "I I I"},
	{OpAtomicIAdd, "OpAtomicIAdd", shapeTyped, "I I I I"},
	{OpAtomicISub, "OpAtomicISub", shapeTyped, "I I I I"},
	{OpAtomicSMin, "OpAtomicSMin", shapeTyped, "I I I I"},
	{OpAtomicUMin, "OpAtomicUMin", shapeTyped, "I I I I"},
	{OpAtomicSMax, "OpAtomicSMax", shapeTyped, "I I I I"},
	{OpAtomicUMax, "OpAtomicUMax", shapeTyped, "I I I I"},
	{OpAtomicAnd, "OpAtomicAnd", shapeTyped, "I I I I"},
	{OpAtomicOr, "OpAtomicOr", shapeTyped, "I I I I"},
	{OpAtomicXor, "OpAtomicXor", shapeTyped, "I I I I"},

	{OpPhi, "OpPhi", shapeTyped, "I*"},
	{OpLoopMerge, "OpLoopMerge", shapeNone, "I I L L*"},
	{OpSelectionMerge, "OpSelectionMerge", shapeNone, "I L"},
	{OpLabel, "OpLabel", shapeResult, ""},
	{OpBranch, "OpBranch", shapeNone, "I"},
	{OpBranchConditional, "OpBranchConditional", shapeNone, "I I I L*"},
	{OpSwitch, "OpSwitch", shapeNone, "I I P"},
	{OpKill, "OpKill", shapeNone, ""},
	{OpReturn, "OpReturn", shapeNone, ""},
	{OpReturnValue, "OpReturnValue", shapeNone, "I"},
	{OpUnreachable, "OpUnreachable", shapeNone, ""},

	{OpNoLine, "OpNoLine", shapeNone, ""},
	{OpModuleProcessed, "OpModuleProcessed", shapeNone, "S"},
	{OpExecutionModeID, "OpExecutionModeId", shapeNone, "I L I*"},
	{OpDecorateID, "OpDecorateId", shapeNone, "I L I*"},
	{OpCopyLogical, "OpCopyLogical", shapeTyped, "I"},
	{OpTerminateInvocation, "OpTerminateInvocation", shapeNone, ""},
	{OpTypeRayQueryKHR, "OpTypeRayQueryKHR", shapeResult, ""},
	{OpTypeAccelerationStructureKHR, "OpTypeAccelerationStructureKHR", shapeResult, ""},
	{OpDemoteToHelperInvocation, "OpDemoteToHelperInvocation", shapeNone, ""},
	{OpDecorateString, "OpDecorateString", shapeNone, "I L S*"},
	{OpMemberDecorateString, "OpMemberDecorateString", shapeNone, "I L L S*"},
})

func buildGrammar(entries []grammarEntry) map[Op]layout {
	g := make(map[Op]layout, len(entries))
	for _, e := range entries {
		if _, dup := g[e.op]; dup {
			panic("spirv: duplicate grammar entry for " + e.name)
		}
		g[e.op] = layout{name: e.name, shape: e.shape, operands: parseLayout(e.layout)}
	}
	return g
}

func parseLayout(s string) []operandSpec {
	fields := strings.Fields(s)
	specs := make([]operandSpec, 0, len(fields))
	for _, f := range fields {
		var spec operandSpec
		switch {
		case f == "P":
			spec = operandSpec{kind: OperandLiteral, quant: quantRest, switches: true}
			specs = append(specs, spec)
			continue
		case f == "IL*":
			spec = operandSpec{kind: OperandID, quant: quantRest, idLit: true}
			specs = append(specs, spec)
			continue
		}
		switch f[0] {
		case 'I':
			spec.kind = OperandID
		case 'L':
			spec.kind = OperandLiteral
		case 'S':
			spec.kind = OperandString
		default:
			panic("spirv: bad layout token " + f)
		}
		if len(f) > 1 {
			switch f[1] {
			case '?':
				spec.quant = quantOptional
			case '*':
				spec.quant = quantRest
			default:
				panic("spirv: bad layout token " + f)
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// Known reports whether the decoder understands op.
func Known(op Op) bool {
	_, ok := grammar[op]
	return ok
}

// HasResultType reports whether op carries a result type id.
func HasResultType(op Op) bool { return grammar[op].hasType() }

// HasResultID reports whether op defines a result id.
func HasResultID(op Op) bool { return grammar[op].hasResult() }
