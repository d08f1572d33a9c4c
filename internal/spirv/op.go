package spirv

// Op is a SPIR-V opcode.
type Op uint16

// Opcodes understood by the decoder and the passes.
const (
	OpNop                Op = 0
	OpUndef              Op = 1
	OpSourceContinued    Op = 2
	OpSource             Op = 3
	OpSourceExtension    Op = 4
	OpName               Op = 5
	OpMemberName         Op = 6
	OpString             Op = 7
	OpLine               Op = 8
	OpExtension          Op = 10
	OpExtInstImport      Op = 11
	OpExtInst            Op = 12
	OpMemoryModel        Op = 14
	OpEntryPoint         Op = 15
	OpExecutionMode      Op = 16
	OpCapability         Op = 17
	OpTypeVoid           Op = 19
	OpTypeBool           Op = 20
	OpTypeInt            Op = 21
	OpTypeFloat          Op = 22
	OpTypeVector         Op = 23
	OpTypeMatrix         Op = 24
	OpTypeImage          Op = 25
	OpTypeSampler        Op = 26
	OpTypeSampledImage   Op = 27
	OpTypeArray          Op = 28
	OpTypeRuntimeArray   Op = 29
	OpTypeStruct         Op = 30
	OpTypeOpaque         Op = 31
	OpTypePointer        Op = 32
	OpTypeFunction       Op = 33
	OpTypeEvent          Op = 34
	OpTypeDeviceEvent    Op = 35
	OpTypeReserveID      Op = 36
	OpTypeQueue          Op = 37
	OpTypePipe           Op = 38
	OpTypeForwardPointer Op = 39

	OpConstantTrue          Op = 41
	OpConstantFalse         Op = 42
	OpConstant              Op = 43
	OpConstantComposite     Op = 44
	OpConstantSampler       Op = 45
	OpConstantNull          Op = 46
	OpSpecConstantTrue      Op = 48
	OpSpecConstantFalse     Op = 49
	OpSpecConstant          Op = 50
	OpSpecConstantComposite Op = 51
	OpSpecConstantOp        Op = 52

	OpFunction          Op = 54
	OpFunctionParameter Op = 55
	OpFunctionEnd       Op = 56
	OpFunctionCall      Op = 57

	OpVariable               Op = 59
	OpImageTexelPointer      Op = 60
	OpLoad                   Op = 61
	OpStore                  Op = 62
	OpCopyMemory             Op = 63
	OpCopyMemorySized        Op = 64
	OpAccessChain            Op = 65
	OpInBoundsAccessChain    Op = 66
	OpPtrAccessChain         Op = 67
	OpArrayLength            Op = 68
	OpGenericPtrMemSemantics Op = 69
	OpInBoundsPtrAccessChain Op = 70

	OpDecorate            Op = 71
	OpMemberDecorate      Op = 72
	OpDecorationGroup     Op = 73
	OpGroupDecorate       Op = 74
	OpGroupMemberDecorate Op = 75

	OpVectorExtractDynamic Op = 77
	OpVectorInsertDynamic  Op = 78
	OpVectorShuffle        Op = 79
	OpCompositeConstruct   Op = 80
	OpCompositeExtract     Op = 81
	OpCompositeInsert      Op = 82
	OpCopyObject           Op = 83
	OpTranspose            Op = 84

	OpSampledImage                   Op = 86
	OpImageSampleImplicitLod         Op = 87
	OpImageSampleExplicitLod         Op = 88
	OpImageSampleDrefImplicitLod     Op = 89
	OpImageSampleDrefExplicitLod     Op = 90
	OpImageSampleProjImplicitLod     Op = 91
	OpImageSampleProjExplicitLod     Op = 92
	OpImageSampleProjDrefImplicitLod Op = 93
	OpImageSampleProjDrefExplicitLod Op = 94
	OpImageFetch                     Op = 95
	OpImageGather                    Op = 96
	OpImageDrefGather                Op = 97
	OpImageRead                      Op = 98
	OpImageWrite                     Op = 99
	OpImage                          Op = 100
	OpImageQueryFormat               Op = 101
	OpImageQueryOrder                Op = 102
	OpImageQuerySizeLod              Op = 103
	OpImageQuerySize                 Op = 104
	OpImageQueryLod                  Op = 105
	OpImageQueryLevels               Op = 106
	OpImageQuerySamples              Op = 107

	OpConvertFToU              Op = 109
	OpConvertFToS              Op = 110
	OpConvertSToF              Op = 111
	OpConvertUToF              Op = 112
	OpUConvert                 Op = 113
	OpSConvert                 Op = 114
	OpFConvert                 Op = 115
	OpQuantizeToF16            Op = 116
	OpConvertPtrToU            Op = 117
	OpSatConvertSToU           Op = 118
	OpSatConvertUToS           Op = 119
	OpConvertUToPtr            Op = 120
	OpPtrCastToGeneric         Op = 121
	OpGenericCastToPtr         Op = 122
	OpGenericCastToPtrExplicit Op = 123
	OpBitcast                  Op = 124

	OpSNegate           Op = 126
	OpFNegate           Op = 127
	OpIAdd              Op = 128
	OpFAdd              Op = 129
	OpISub              Op = 130
	OpFSub              Op = 131
	OpIMul              Op = 132
	OpFMul              Op = 133
	OpUDiv              Op = 134
	OpSDiv              Op = 135
	OpFDiv              Op = 136
	OpUMod              Op = 137
	OpSRem              Op = 138
	OpSMod              Op = 139
	OpFRem              Op = 140
	OpFMod              Op = 141
	OpVectorTimesScalar Op = 142
	OpMatrixTimesScalar Op = 143
	OpVectorTimesMatrix Op = 144
	OpMatrixTimesVector Op = 145
	OpMatrixTimesMatrix Op = 146
	OpOuterProduct      Op = 147
	OpDot               Op = 148
	OpIAddCarry         Op = 149
	OpISubBorrow        Op = 150
	OpUMulExtended      Op = 151
	OpSMulExtended      Op = 152

	OpAny                    Op = 154
	OpAll                    Op = 155
	OpIsNan                  Op = 156
	OpIsInf                  Op = 157
	OpIsFinite               Op = 158
	OpIsNormal               Op = 159
	OpSignBitSet             Op = 160
	OpLessOrGreater          Op = 161
	OpOrdered                Op = 162
	OpUnordered              Op = 163
	OpLogicalEqual           Op = 164
	OpLogicalNotEqual        Op = 165
	OpLogicalOr              Op = 166
	OpLogicalAnd             Op = 167
	OpLogicalNot             Op = 168
	OpSelect                 Op = 169
	OpIEqual                 Op = 170
	OpINotEqual              Op = 171
	OpUGreaterThan           Op = 172
	OpSGreaterThan           Op = 173
	OpUGreaterThanEqual      Op = 174
	OpSGreaterThanEqual      Op = 175
	OpULessThan              Op = 176
	OpSLessThan              Op = 177
	OpULessThanEqual         Op = 178
	OpSLessThanEqual         Op = 179
	OpFOrdEqual              Op = 180
	OpFUnordEqual            Op = 181
	OpFOrdNotEqual           Op = 182
	OpFUnordNotEqual         Op = 183
	OpFOrdLessThan           Op = 184
	OpFUnordLessThan         Op = 185
	OpFOrdGreaterThan        Op = 186
	OpFUnordGreaterThan      Op = 187
	OpFOrdLessThanEqual      Op = 188
	OpFUnordLessThanEqual    Op = 189
	OpFOrdGreaterThanEqual   Op = 190
	OpFUnordGreaterThanEqual Op = 191

	OpShiftRightLogical    Op = 194
	OpShiftRightArithmetic Op = 195
	OpShiftLeftLogical     Op = 196
	OpBitwiseOr            Op = 197
	OpBitwiseXor           Op = 198
	OpBitwiseAnd           Op = 199
	OpNot                  Op = 200
	OpBitFieldInsert       Op = 201
	OpBitFieldSExtract     Op = 202
	OpBitFieldUExtract     Op = 203
	OpBitReverse           Op = 204
	OpBitCount             Op = 205

	OpDPdx         Op = 207
	OpDPdy         Op = 208
	OpFwidth       Op = 209
	OpDPdxFine     Op = 210
	OpDPdyFine     Op = 211
	OpFwidthFine   Op = 212
	OpDPdxCoarse   Op = 213
	OpDPdyCoarse   Op = 214
	OpFwidthCoarse Op = 215

	OpEmitVertex   Op = 218
	OpEndPrimitive Op = 219

	OpControlBarrier        Op = 224
	OpMemoryBarrier         Op = 225
	OpAtomicLoad            Op = 227
	OpAtomicStore           Op = 228
	OpAtomicExchange        Op = 229
	OpAtomicCompareExchange Op = 230
	OpAtomicIIncrement      Op = 232
	OpAtomicIDecrement      Op = 233
	OpAtomicIAdd            Op = 234
	OpAtomicISub            Op = 235
	OpAtomicSMin            Op = 236
	OpAtomicUMin            Op = 237
	OpAtomicSMax            Op = 238
	OpAtomicUMax            Op = 239
	OpAtomicAnd             Op = 240
	OpAtomicOr              Op = 241
	OpAtomicXor             Op = 242

	OpPhi               Op = 245
	OpLoopMerge         Op = 246
	OpSelectionMerge    Op = 247
	OpLabel             Op = 248
	OpBranch            Op = 249
	OpBranchConditional Op = 250
	OpSwitch            Op = 251
	OpKill              Op = 252
	OpReturn            Op = 253
	OpReturnValue       Op = 254
	OpUnreachable       Op = 255

	OpNoLine                       Op = 317
	OpModuleProcessed              Op = 330
	OpExecutionModeID              Op = 331
	OpDecorateID                   Op = 332
	OpCopyLogical                  Op = 400
	OpTerminateInvocation          Op = 4416
	OpTypeRayQueryKHR              Op = 4472
	OpTypeAccelerationStructureKHR Op = 5341
	OpDemoteToHelperInvocation     Op = 5380
	OpDecorateString               Op = 5632
	OpMemberDecorateString         Op = 5633
)

// IsTypeOp reports whether op declares a type.
func IsTypeOp(op Op) bool {
	switch op {
	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector,
		OpTypeMatrix, OpTypeImage, OpTypeSampler, OpTypeSampledImage,
		OpTypeArray, OpTypeRuntimeArray, OpTypeStruct, OpTypeOpaque,
		OpTypePointer, OpTypeFunction, OpTypeEvent, OpTypeDeviceEvent,
		OpTypeReserveID, OpTypeQueue, OpTypePipe,
		OpTypeRayQueryKHR, OpTypeAccelerationStructureKHR:
		return true
	}
	return false
}

// IsConstantOp reports whether op declares a non-specialization constant.
func IsConstantOp(op Op) bool {
	switch op {
	case OpConstantTrue, OpConstantFalse, OpConstant, OpConstantComposite,
		OpConstantSampler, OpConstantNull:
		return true
	}
	return false
}

// IsDecoration reports whether op is an annotation instruction.
func IsDecoration(op Op) bool {
	switch op {
	case OpDecorate, OpMemberDecorate, OpDecorationGroup, OpGroupDecorate,
		OpGroupMemberDecorate, OpDecorateID, OpDecorateString,
		OpMemberDecorateString:
		return true
	}
	return false
}

// IsDebugName reports whether op belongs to the debug-name section.
func IsDebugName(op Op) bool {
	return op == OpName || op == OpMemberName
}

// IsTerminator reports whether op ends a basic block.
func IsTerminator(op Op) bool {
	switch op {
	case OpBranch, OpBranchConditional, OpSwitch, OpKill, OpReturn,
		OpReturnValue, OpUnreachable, OpTerminateInvocation:
		return true
	}
	return false
}

// String returns the assembly name of op.
func (op Op) String() string {
	if l, ok := grammar[op]; ok {
		return l.name
	}
	return "Op" + itoa(uint32(op))
}
