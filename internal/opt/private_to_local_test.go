package opt_test

import (
	"slices"
	"testing"

	"spvopt/internal/debuginfo"
	"spvopt/internal/diag"
	"spvopt/internal/opt"
	"spvopt/internal/spirv"
)

// singleOwner builds a module where %g is stored and loaded by one function
// reached from the entry point main through a call.
type singleOwner struct {
	m       *spirv.Module
	g       uint32
	f32     uint32
	helper  *spirv.Function
	ep      *spirv.Instruction
	store   *spirv.Instruction
	chain   uint32
	u32Ptr  uint32
	structT uint32
}

func buildSingleOwner(t *testing.T, v spirv.Version) singleOwner {
	t.Helper()
	b := spirv.NewBuilder(v)
	b.Capability(spirv.CapabilityShader)
	b.MemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	f32 := b.TypeFloat(32)
	u32 := b.TypeInt(32, false)
	st := b.TypeStruct(f32, u32)
	privSt := b.TypePointer(spirv.StorageClassPrivate, st)
	privU32 := b.TypePointer(spirv.StorageClassPrivate, u32)
	one := b.Constant(f32, 0x3f800000)
	idx := b.Constant(u32, 1)
	g := b.Variable(privSt, spirv.StorageClassPrivate)
	b.Name(g, "g")
	b.Decorate(g, spirv.DecorationRestrict)

	helper := b.Function(void, fnType)
	helper.Block()
	member := helper.AccessChain(privU32, g, idx)
	helper.Load(u32, member)
	zeroIdx := b.Constant(u32, 0)
	privF32 := b.TypePointer(spirv.StorageClassPrivate, f32)
	first := helper.AccessChain(privF32, g, zeroIdx)
	store := helper.Store(first, one)
	helper.Load(st, g)
	helper.Return()

	main := b.Function(void, fnType)
	main.Block()
	main.Call(void, helper.ID())
	main.Return()

	var iface []uint32
	if v.RequiresInterfaceListing() {
		iface = append(iface, g)
	}
	ep := b.EntryPoint(spirv.ExecutionModelGLCompute, main.ID(), "main", iface...)
	return singleOwner{
		m: b.Module(), g: g, f32: f32, helper: helper.Function(), ep: ep,
		store: store, chain: member, u32Ptr: privU32, structT: st,
	}
}

func findDef(m *spirv.Module, id uint32) *spirv.Instruction {
	var def *spirv.Instruction
	m.ForEachInst(func(inst *spirv.Instruction) {
		if inst.ResultID() == id {
			def = inst
		}
	})
	return def
}

func isFunctionPointerTo(m *spirv.Module, ptr, pointee uint32) bool {
	def := findDef(m, ptr)
	return def != nil && def.Opcode() == spirv.OpTypePointer &&
		def.StorageClass() == spirv.StorageClassFunction && def.OperandID(1) == pointee
}

func TestPrivateToLocalPromotesSingleOwner(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_4)
	bag := diag.NewBag(0)
	ctx := opt.NewContext(f.m, opt.WithReporter(diag.BagReporter{Bag: bag}))

	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.Changed {
		t.Fatalf("status = %v, want changed; diagnostics: %v", st, bag.Items())
	}
	for _, inst := range f.m.TypesValues() {
		if inst.ResultID() == f.g {
			t.Fatalf("global %%%d still at module scope", f.g)
		}
	}

	clone := f.helper.EntryBlock().Instructions()[0]
	if clone.Opcode() != spirv.OpVariable || clone.StorageClass() != spirv.StorageClassFunction {
		t.Fatalf("entry block does not start with a Function variable: %v", clone)
	}
	if !isFunctionPointerTo(f.m, clone.TypeID(), f.structT) {
		t.Fatalf("clone type %%%d is not a Function pointer to the struct", clone.TypeID())
	}

	chain := findDef(f.m, f.chain)
	if chain.OperandID(0) != clone.ResultID() {
		t.Fatalf("access chain base not retargeted: %v", chain)
	}
	if !isFunctionPointerTo(f.m, chain.TypeID(), findDef(f.m, f.u32Ptr).OperandID(1)) {
		t.Fatalf("access chain type not updated: %v", chain)
	}
	if chain.TypeID() == f.u32Ptr {
		t.Fatalf("access chain still has the Private pointer type")
	}

	for _, inst := range f.m.DebugNames() {
		if inst.OperandID(0) == f.g {
			t.Fatalf("OpName still targets the global")
		}
	}
	for _, inst := range f.m.Annotations() {
		if inst.OperandID(0) != clone.ResultID() {
			t.Fatalf("decoration not retargeted: %v", inst)
		}
	}
	if f.ep.NumOperands() != spirv.EntryPointInterfaceStart {
		t.Fatalf("entry point interface still lists ids: %v", f.ep)
	}

	// load keeps its value type
	loads := 0
	f.helper.ForEachInst(func(inst *spirv.Instruction) {
		if inst.Opcode() == spirv.OpLoad && inst.OperandID(0) == clone.ResultID() {
			loads++
			if inst.TypeID() != f.structT {
				t.Fatalf("load type changed: %v", inst)
			}
		}
	})
	if loads != 1 {
		t.Fatalf("got %d loads through the clone, want 1", loads)
	}

	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.NoChange {
		t.Fatalf("second run = %v, want no-change", st)
	}
}

func TestPrivateToLocalKeepsInterfaceBeforeVersion14(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_3)
	ctx := opt.NewContext(f.m)
	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.Changed {
		t.Fatalf("status = %v, want changed", st)
	}
	if f.ep.NumOperands() != spirv.EntryPointInterfaceStart {
		t.Fatalf("entry point gained operands: %v", f.ep)
	}
}

func TestPrivateToLocalRejectsInterfaceUseBeforeVersion14(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_3)
	f.ep.AppendOperand(spirv.IDOperand(f.g))
	before, err := f.m.Words()
	if err != nil {
		t.Fatal(err)
	}
	if st := (opt.PrivateToLocal{}).Run(opt.NewContext(f.m)); st != opt.NoChange {
		t.Fatalf("status = %v, want no-change", st)
	}
	after, err := f.m.Words()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(before, after) {
		t.Fatalf("module changed")
	}
}

func TestPrivateToLocalMultiOwnerLeftIntact(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	b.Capability(spirv.CapabilityShader)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	f32 := b.TypeFloat(32)
	ptr := b.TypePointer(spirv.StorageClassPrivate, f32)
	one := b.Constant(f32, 0x3f800000)
	g := b.Variable(ptr, spirv.StorageClassPrivate)

	a := b.Function(void, fnType)
	a.Block()
	a.Store(g, one)
	a.Return()

	c := b.Function(void, fnType)
	c.Block()
	c.Load(f32, g)
	c.Return()

	b.EntryPoint(spirv.ExecutionModelGLCompute, a.ID(), "a")
	b.EntryPoint(spirv.ExecutionModelGLCompute, c.ID(), "c")
	m := b.Module()

	before, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(0)
	if st := (opt.PrivateToLocal{}).Run(opt.NewContext(m, opt.WithReporter(diag.BagReporter{Bag: bag}))); st != opt.NoChange {
		t.Fatalf("status = %v, want no-change", st)
	}
	after, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(before, after) {
		t.Fatalf("module not byte-identical after rejected promotion")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.OptUnsupportedUse {
		t.Fatalf("expected one unsupported-use note, got %v", bag.Items())
	}
}

func TestPrivateToLocalUnsupportedUse(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	void := b.TypeVoid()
	f32 := b.TypeFloat(32)
	ptr := b.TypePointer(spirv.StorageClassPrivate, f32)
	fnType := b.TypeFunction(void)
	takesPtr := b.TypeFunction(void, ptr)
	g := b.Variable(ptr, spirv.StorageClassPrivate)

	callee := b.Function(void, takesPtr)
	callee.Param(ptr)
	callee.Block()
	callee.Return()

	main := b.Function(void, fnType)
	main.Block()
	main.Load(f32, g)
	main.Call(void, callee.ID(), g)
	main.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, main.ID(), "main")

	bag := diag.NewBag(0)
	ctx := opt.NewContext(b.Module(), opt.WithReporter(diag.BagReporter{Bag: bag}))
	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.NoChange {
		t.Fatalf("status = %v, want no-change", st)
	}
	if bag.HasErrors() {
		t.Fatalf("unsupported use must not be an error: %v", bag.Items())
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.OptUnsupportedUse && d.Primary.Opcode == spirv.OpFunctionCall {
			found = true
		}
	}
	if !found {
		t.Fatalf("call use not diagnosed: %v", bag.Items())
	}
}

func TestPrivateToLocalSkipsAddressesModules(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_4)
	m := f.m
	m.Add(spirv.NewInstruction(spirv.OpCapability, 0, 0, spirv.LiteralOperand(uint32(spirv.CapabilityAddresses))))
	if st := (opt.PrivateToLocal{}).Run(opt.NewContext(m)); st != opt.NoChange {
		t.Fatalf("status = %v, want no-change", st)
	}
}

type failingTypes struct{}

func (failingTypes) FindOrCreatePointerType(uint32, spirv.StorageClass) (uint32, bool) {
	return 0, false
}

func (failingTypes) PointeeType(uint32) (uint32, spirv.StorageClass, bool) {
	return 0, 0, false
}

func TestPrivateToLocalTypeResolutionFailure(t *testing.T) {
	f := buildSingleOwner(t, spirv.Version1_4)
	bag := diag.NewBag(0)
	ctx := opt.NewContext(f.m,
		opt.WithReporter(diag.BagReporter{Bag: bag}),
		opt.WithTypeResolver(failingTypes{}))

	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.Failure {
		t.Fatalf("status = %v, want failure", st)
	}
	if !bag.HasErrors() || bag.Items()[0].Code != diag.OptTypeResolution {
		t.Fatalf("expected a type resolution error, got %v", bag.Items())
	}
	if findDef(f.m, f.g).Section() != spirv.SectionTypesValues {
		t.Fatalf("global moved despite the failure")
	}
	if findDef(f.m, f.chain).TypeID() != f.u32Ptr || f.ep.NumOperands() != spirv.EntryPointInterfaceStart+1 {
		t.Fatalf("module rewritten despite the failure")
	}
}

// debugRecordModule builds a compute shader whose Private %g is described
// by a DebugGlobalVariable.
type debugRecordModule struct {
	m      *spirv.Module
	g      uint32
	record uint32
	main   *spirv.Function
}

func buildDebugRecord(t *testing.T) debugRecordModule {
	t.Helper()
	b := spirv.NewBuilder(spirv.Version1_5)
	set := b.ExtInstImport(debuginfo.SetName)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	u32 := b.TypeInt(32, false)
	ptr := b.TypePointer(spirv.StorageClassPrivate, u32)
	b.TypePointer(spirv.StorageClassFunction, u32)
	zero := b.Constant(u32, 0)
	g := b.Variable(ptr, spirv.StorageClassPrivate)
	name := b.DebugString("g")
	src := b.DebugString("shader.hlsl")
	unit := b.ExtInst(void, set, 1, zero, zero, src, zero)
	dbgType := b.ExtInst(void, set, 2, name, zero, zero, zero)
	record := b.ExtInst(void, set, debuginfo.DebugGlobalVariable,
		name, dbgType, src, zero, zero, unit, name, g, zero)

	main := b.Function(void, fnType)
	main.Block()
	main.Store(g, zero)
	main.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, main.ID(), "main", g)
	return debugRecordModule{m: b.Module(), g: g, record: record, main: main.Function()}
}

func TestPrivateToLocalConvertsDebugRecord(t *testing.T) {
	f := buildDebugRecord(t)
	ctx := opt.NewContext(f.m)
	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.Changed {
		t.Fatalf("status = %v, want changed", st)
	}
	rec := findDef(f.m, f.record)
	if rec.ExtInstNumber() != debuginfo.DebugLocalVariable {
		t.Fatalf("record not converted: %v", rec)
	}
	insts := f.main.EntryBlock().Instructions()
	if len(insts) < 2 || insts[1].ExtInstNumber() != debuginfo.DebugDeclare {
		t.Fatalf("DebugDeclare missing after the promoted variable")
	}
	if insts[1].OperandID(3) != insts[0].ResultID() {
		t.Fatalf("DebugDeclare does not name the promoted variable")
	}
}

func TestPrivateToLocalDebugIDsExhaustedLeavesModule(t *testing.T) {
	f := buildDebugRecord(t)
	// the clone and the expression fit, the DebugDeclare does not
	f.m.SetBound(spirv.MaxIDBound - 2)
	bag := diag.NewBag(0)
	ctx := opt.NewContext(f.m, opt.WithReporter(diag.BagReporter{Bag: bag}))

	if st := (opt.PrivateToLocal{}).Run(ctx); st != opt.Failure {
		t.Fatalf("status = %v, want failure", st)
	}
	if !slices.ContainsFunc(bag.Items(), func(d diag.Diagnostic) bool { return d.Code == diag.OptIDOverflow }) {
		t.Fatalf("expected an id overflow error, got %v", bag.Items())
	}
	if findDef(f.m, f.g).Section() != spirv.SectionTypesValues {
		t.Fatalf("global moved despite the failure")
	}
	if rec := findDef(f.m, f.record); rec.ExtInstNumber() != debuginfo.DebugGlobalVariable {
		t.Fatalf("record rewritten despite the failure: %v", rec)
	}
	if n := len(f.main.EntryBlock().Instructions()); n != 2 {
		t.Fatalf("entry block has %d instructions, want the store and return", n)
	}
}
