package opt

import (
	"errors"
	"fmt"
	"slices"

	"spvopt/internal/debuginfo"
	"spvopt/internal/defuse"
	"spvopt/internal/diag"
	"spvopt/internal/spirv"
)

// PrivateToLocalName is the registry name of PrivateToLocal.
const PrivateToLocalName = "private-to-local"

// PrivateToLocal moves Private variables used by a single function into that
// function's entry block as Function variables.
//
// A variable qualifies when every use is a load, a store through it, an
// image texel pointer, an access chain whose own uses qualify, a name, a
// decoration, its debug global record, or (from version 1.4) an entry point
// interface entry, and all function uses sit in one function reached from
// some entry point.
type PrivateToLocal struct{}

func (PrivateToLocal) Name() string { return PrivateToLocalName }

// promotion is a variable scheduled to move, with every id and type it
// needs already resolved.
type promotion struct {
	variable *spirv.Instruction
	owner    *spirv.Function
	records  []*spirv.Instruction
	debug    []*debuginfo.Conversion
	cloneID  uint32
	ptrType  uint32
	chains   []retype
}

type retype struct {
	inst    *spirv.Instruction
	newType uint32
}

func (p PrivateToLocal) Run(ctx *Context) Status {
	m := ctx.Module()
	if ctx.Features().HasCapability(spirv.CapabilityAddresses) {
		return NoChange
	}
	du, ok := ctx.defUseOrFail()
	if !ok {
		return Failure
	}

	// Phase 1: pick an owner per variable
	var candidates []*promotion
	for _, inst := range m.TypesValues() {
		if inst.Opcode() != spirv.OpVariable || inst.StorageClass() != spirv.StorageClassPrivate {
			continue
		}
		if owner := p.findOwner(ctx, du, inst); owner != nil {
			candidates = append(candidates, &promotion{variable: inst, owner: owner})
		}
	}
	if len(candidates) == 0 {
		return NoChange
	}

	// Phase 2: resolve types and ids before touching any instruction
	for _, c := range candidates {
		if !p.plan(ctx, du, c) {
			return Failure
		}
	}

	// Phase 3: rewrite
	promoted := make(map[uint32]struct{}, len(candidates))
	for _, c := range candidates {
		if code, err := p.promote(ctx, du, c); err != nil {
			diag.ReportError(ctx.Reporter(), code, diag.At(c.variable), err.Error()).Emit()
			return Failure
		}
		promoted[c.cloneID] = struct{}{}
	}

	// Phase 4: entry point interfaces
	if m.Version().RequiresInterfaceListing() {
		if err := dropInterfaceEntries(m, du, promoted); err != nil {
			diag.ReportError(ctx.Reporter(), diag.OptDefUse, diag.NoLocation, err.Error()).Emit()
			return Failure
		}
	}
	return Changed
}

// findOwner returns the function the variable can move into, or nil.
func (p PrivateToLocal) findOwner(ctx *Context, du *defuse.Manager, variable *spirv.Instruction) *spirv.Function {
	id := variable.ResultID()
	version := ctx.Module().Version()

	type entry struct {
		ep, owner *spirv.Function
	}
	var owners []entry
	lookup := func(ep *spirv.Function) int {
		for i, e := range owners {
			if e.ep == ep {
				return i
			}
		}
		return -1
	}
	disqualified := make(map[*spirv.Function]bool)
	var resident []*spirv.Instruction

	for _, use := range du.Users(id) {
		fn := use.Function()
		if fn == nil {
			if !p.validGlobalUse(ctx, use, id, version) {
				diag.ReportInfo(ctx.Reporter(), diag.OptUnsupportedUse, diag.At(use),
					fmt.Sprintf("%s keeps %%%d at module scope", use.Opcode(), id)).Emit()
				return nil
			}
			continue
		}
		resident = append(resident, use)
		if !p.validUse(du, use, id) {
			diag.ReportInfo(ctx.Reporter(), diag.OptUnsupportedUse, diag.At(use),
				fmt.Sprintf("%s keeps %%%d at module scope", use.Opcode(), id)).Emit()
			disqualified[fn] = true
			owners = slices.DeleteFunc(owners, func(e entry) bool { return e.owner == fn })
			continue
		}
		if disqualified[fn] {
			continue
		}
		for _, ep := range ctx.Calls().EntryPointsReaching(fn) {
			i := lookup(ep)
			if i < 0 {
				owners = append(owners, entry{ep: ep, owner: fn})
				continue
			}
			if owners[i].owner != fn {
				break
			}
		}
	}
	if len(owners) == 0 {
		return nil
	}
	target := owners[0].owner
	for _, use := range resident {
		if use.Function() != target {
			diag.ReportInfo(ctx.Reporter(), diag.OptUnsupportedUse, diag.At(variable),
				fmt.Sprintf("%%%d is used outside %%%d", id, target.ResultID())).
				WithNote(diag.At(use), "used here").Emit()
			return nil
		}
	}
	if target.EntryBlock() == nil {
		return nil
	}
	return target
}

// validUse reports whether a function-resident use of ptr can be retargeted.
func (p PrivateToLocal) validUse(du *defuse.Manager, use *spirv.Instruction, ptr uint32) bool {
	switch use.Opcode() {
	case spirv.OpLoad:
		return true
	case spirv.OpStore:
		return use.OperandID(0) == ptr && use.OperandID(1) != ptr
	case spirv.OpImageTexelPointer:
		return use.OperandID(0) == ptr
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
		if use.OperandID(0) != ptr {
			return false
		}
		derived := use.ResultID()
		return du.WhileEachUser(derived, func(u *spirv.Instruction) bool {
			return p.validUse(du, u, derived)
		})
	case spirv.OpName:
		return true
	}
	return spirv.IsDecoration(use.Opcode())
}

// validGlobalUse reports whether a module-scope use of id can be retargeted.
func (p PrivateToLocal) validGlobalUse(ctx *Context, use *spirv.Instruction, id uint32, v spirv.Version) bool {
	switch op := use.Opcode(); {
	case op == spirv.OpName, spirv.IsDecoration(op):
		return true
	case op == spirv.OpEntryPoint:
		return v.RequiresInterfaceListing()
	case op == spirv.OpExtInst:
		return ctx.Debug().IsGlobalVariable(use) && debuginfo.GlobalVariableOf(use) == id
	}
	return false
}

// plan resolves the pointer types of c and takes every id it needs.
func (p PrivateToLocal) plan(ctx *Context, du *defuse.Manager, c *promotion) bool {
	types := ctx.Types()
	ptr, ok := functionPointerFor(types, c.variable.TypeID())
	if !ok {
		diag.ReportError(ctx.Reporter(), diag.OptTypeResolution, diag.At(c.variable),
			fmt.Sprintf("no Function pointer type for %%%d", c.variable.ResultID())).Emit()
		return false
	}
	c.ptrType = ptr

	var walk func(id uint32) bool
	walk = func(id uint32) bool {
		for _, u := range du.Users(id) {
			switch u.Opcode() {
			case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
				if u.OperandID(0) != id {
					continue
				}
				t, ok := functionPointerFor(types, u.TypeID())
				if !ok {
					diag.ReportError(ctx.Reporter(), diag.OptTypeResolution, diag.At(u),
						fmt.Sprintf("no Function pointer type for access chain %%%d", u.ResultID())).Emit()
					return false
				}
				c.chains = append(c.chains, retype{inst: u, newType: t})
				if !walk(u.ResultID()) {
					return false
				}
			case spirv.OpExtInst:
				if u.Function() == nil && ctx.Debug().IsGlobalVariable(u) {
					c.records = append(c.records, u)
				}
			}
		}
		return true
	}
	if !walk(c.variable.ResultID()) {
		return false
	}

	id, err := ctx.Module().TakeNextID()
	if err != nil {
		diag.ReportError(ctx.Reporter(), diag.OptIDOverflow, diag.At(c.variable), err.Error()).Emit()
		return false
	}
	c.cloneID = id

	for _, rec := range c.records {
		cv, err := ctx.Debug().ReserveGlobalToLocal(rec)
		if err != nil {
			code := diag.OptDebugInfo
			if errors.Is(err, spirv.ErrIDOverflow) {
				code = diag.OptIDOverflow
			}
			diag.ReportError(ctx.Reporter(), code, diag.At(rec),
				fmt.Sprintf("debug record %%%d: %v", rec.ResultID(), err)).Emit()
			return false
		}
		c.debug = append(c.debug, cv)
	}
	return true
}

func functionPointerFor(types TypeResolver, ptrType uint32) (uint32, bool) {
	pointee, _, ok := types.PointeeType(ptrType)
	if !ok {
		return 0, false
	}
	return types.FindOrCreatePointerType(pointee, spirv.StorageClassFunction)
}

// promote moves c.variable into its owner. Uses move to the clone, derived
// pointers get Function pointer types, and the global is removed.
func (p PrivateToLocal) promote(ctx *Context, du *defuse.Manager, c *promotion) (diag.Code, error) {
	m := ctx.Module()
	old := c.variable.ResultID()

	clone := c.variable.Clone()
	clone.SetResultID(c.cloneID)
	clone.SetTypeID(c.ptrType)
	clone.SetOperand(0, spirv.LiteralOperand(uint32(spirv.StorageClassFunction)))
	c.owner.EntryBlock().InsertFront(clone)
	if err := du.Analyze(clone); err != nil {
		return diag.OptDefUse, err
	}

	for _, ch := range c.chains {
		if err := du.Edit(ch.inst, func() { ch.inst.SetTypeID(ch.newType) }); err != nil {
			return diag.OptDefUse, err
		}
	}
	for _, cv := range c.debug {
		if err := ctx.Debug().ConvertGlobalToLocal(cv, clone); err != nil {
			return diag.OptDebugInfo, fmt.Errorf("debug record %%%d: %w", cv.Record().ResultID(), err)
		}
	}

	du.ReplaceAllUsesWith(old, c.cloneID)
	du.Erase(c.variable)
	m.RemoveGlobal(c.variable)
	return 0, nil
}

// dropInterfaceEntries removes promoted ids from every entry point interface.
func dropInterfaceEntries(m *spirv.Module, du *defuse.Manager, promoted map[uint32]struct{}) error {
	for _, ep := range m.EntryPoints() {
		ops := ep.Operands()
		kept := ops[:0:0]
		for i, o := range ops {
			if _, gone := promoted[o.ID()]; i >= spirv.EntryPointInterfaceStart && gone {
				continue
			}
			kept = append(kept, o)
		}
		if len(kept) == len(ops) {
			continue
		}
		if err := du.Edit(ep, func() { ep.SetOperands(kept) }); err != nil {
			return err
		}
	}
	return nil
}
