package opt

import (
	"fmt"
	"math"

	"spvopt/internal/defuse"
	"spvopt/internal/diag"
	"spvopt/internal/spirv"
)

// RemapIDsName is the registry name of RemapIDs.
const RemapIDsName = "remap-ids"

// RemapIDs renumbers type, constant and name-bound ids from their content so
// equivalent modules end up with equal ids.
//
// Types and constants hash into [8, 3019), names into [3019, 6030). Every
// other id keeps its value and is claimed before new ids are searched.
type RemapIDs struct {
	// Lenient reports malformed bindings and collisions as warnings and
	// skips them instead of failing.
	Lenient bool
}

func (RemapIDs) Name() string { return RemapIDsName }

const (
	idUnused   uint32 = math.MaxUint32
	idUnmapped uint32 = math.MaxUint32 - 1
)

type nameBinding struct {
	inst   *spirv.Instruction
	target uint32
	name   string
}

// remapper holds the id allocation state of one run.
type remapper struct {
	ctx     *Context
	du      *defuse.Manager
	bound   uint32
	lenient bool

	newID   []uint32
	claimed claimSet
	failed  bool

	typesConsts []uint32
	names       []nameBinding
	functions   []uint32
	remainder   []uint32
	stray       []uint32
	order       []uint32
}

func (r RemapIDs) Run(ctx *Context) Status {
	du, ok := ctx.defUseOrFail()
	if !ok {
		return Failure
	}
	m := ctx.Module()
	rm := &remapper{
		ctx:     ctx,
		du:      du,
		bound:   m.Bound(),
		lenient: r.Lenient,
	}

	// Phase 1: classify ids
	rm.scan()
	rm.claimKept()

	// Phase 2: choose canonical ids
	rm.remapTypesAndConstants()
	rm.remapNames()
	if rm.failed && !r.Lenient {
		return Failure
	}

	// Phase 3: rename
	renamed, err := rm.apply()
	if err != nil {
		diag.ReportError(ctx.Reporter(), diag.RemapCollision, diag.NoLocation, err.Error()).Emit()
		return Failure
	}

	// Phase 4: finalize
	bound := m.ComputeIDBound()
	boundChanged := bound != m.Bound()
	m.SetBound(bound)
	ctx.InvalidateFeatures()
	if renamed == 0 && !boundChanged {
		return NoChange
	}
	diag.ReportInfo(ctx.Reporter(), diag.RemapInfo, diag.NoLocation,
		fmt.Sprintf("remapped %d ids, bound %d", renamed, bound)).Emit()
	return Changed
}

func (rm *remapper) state(id uint32) uint32 {
	if int(id) >= len(rm.newID) {
		return idUnused
	}
	return rm.newID[id]
}

func (rm *remapper) scan() {
	rm.newID = make([]uint32, rm.bound)
	for i := range rm.newID {
		rm.newID[i] = idUnused
	}
	rm.ctx.Module().ForEachInst(func(inst *spirv.Instruction) {
		op := inst.Opcode()
		// ids at or above the bound keep their value and are diagnosed on
		// assignment
		if id := inst.ResultID(); id != 0 {
			if id < rm.bound {
				rm.newID[id] = idUnmapped
			} else {
				rm.stray = append(rm.stray, id)
			}
		}
		switch {
		case spirv.IsTypeOp(op) || spirv.IsConstantOp(op):
			rm.typesConsts = append(rm.typesConsts, inst.ResultID())
		case op == spirv.OpName:
			rm.names = append(rm.names, nameBinding{
				inst:   inst,
				target: inst.OperandID(0),
				name:   inst.Operand(1).AsString(),
			})
		case op == spirv.OpFunction:
			rm.functions = append(rm.functions, inst.ResultID())
		case inst.ResultID() != 0:
			rm.remainder = append(rm.remainder, inst.ResultID())
		}
	})
}

// claimKept reserves every id that keeps its value so the free id search
// never lands on a live id.
func (rm *remapper) claimKept() {
	for _, id := range rm.stray {
		rm.claimed.add(id)
	}
	named := make(map[uint32]bool, len(rm.names))
	for _, b := range rm.names {
		named[b.target] = true
	}
	for _, ids := range [][]uint32{rm.functions, rm.remainder} {
		for _, id := range ids {
			if !named[id] {
				rm.claimed.add(id)
			}
		}
	}
}

func (rm *remapper) remapTypesAndConstants() {
	h := newTypeHasher(rm.du.Def, rm.ctx.Reporter())
	for _, id := range rm.typesConsts {
		start := h.hash(id)%remapPrime + typeRangeStart
		rm.assign(rm.du.Def(id), id, rm.nextFree(start, typeRangeStart))
	}
}

func (rm *remapper) remapNames() {
	for _, b := range rm.names {
		if b.target >= rm.bound || rm.state(b.target) == idUnused {
			rm.report(diag.RemapMalformedID, b.inst,
				fmt.Sprintf("OpName %q targets undefined id %%%d", b.name, b.target))
			continue
		}
		if rm.state(b.target) != idUnmapped {
			// already canonical as a type or constant, or named before
			continue
		}
		start := hashName(b.name)%remapPrime + nameRangeStart
		rm.assign(b.inst, b.target, rm.nextFree(start, nameRangeStart))
	}
}

// nextFree returns the first unclaimed id at or after start, wrapping inside
// [lo, lo+remapPrime) and continuing above both ranges once that is full.
func (rm *remapper) nextFree(start, lo uint32) uint32 {
	hi := lo + remapPrime
	id := start
	for range remapPrime {
		if !rm.claimed.has(id) {
			return id
		}
		id++
		if id == hi {
			id = lo
		}
	}
	for id = overflowStart; rm.claimed.has(id); id++ {
	}
	return id
}

// assign records old -> id after checking the allocation invariants.
func (rm *remapper) assign(at *spirv.Instruction, old, id uint32) {
	switch {
	case old >= rm.bound:
		rm.report(diag.RemapMalformedID, at, fmt.Sprintf("id %%%d is outside the bound %d", old, rm.bound))
		return
	case rm.state(old) == idUnused:
		rm.report(diag.RemapMalformedID, at, fmt.Sprintf("id %%%d is never defined", old))
		return
	case rm.state(old) != idUnmapped:
		rm.report(diag.RemapCollision, at, fmt.Sprintf("id %%%d is already mapped to %d", old, rm.state(old)))
		return
	case rm.claimed.has(id):
		rm.report(diag.RemapCollision, at, fmt.Sprintf("canonical id %d is already taken", id))
		return
	}
	rm.claimed.add(id)
	rm.newID[old] = id
	rm.order = append(rm.order, old)
}

func (rm *remapper) report(code diag.Code, at *spirv.Instruction, msg string) {
	if rm.lenient {
		diag.ReportWarning(rm.ctx.Reporter(), code, diag.At(at), msg).Emit()
		return
	}
	rm.failed = true
	diag.ReportError(rm.ctx.Reporter(), code, diag.At(at), msg).Emit()
}

// apply renames every mapped id through temporaries above all old, new and
// referenced ids, so no step ever redefines a live id.
func (rm *remapper) apply() (int, error) {
	type move struct{ from, to uint32 }
	var moves []move
	temp := max(rm.bound, rm.ctx.Module().ComputeIDBound())
	for _, old := range rm.order {
		if id := rm.state(old); id != old {
			moves = append(moves, move{from: old, to: id})
			temp = max(temp, id+1)
		}
	}
	for i := range moves {
		if err := rm.rename(moves[i].from, temp+uint32(i)); err != nil {
			return 0, err
		}
	}
	for i, mv := range moves {
		if err := rm.rename(temp+uint32(i), mv.to); err != nil {
			return 0, err
		}
	}
	return len(moves), nil
}

func (rm *remapper) rename(from, to uint32) error {
	def := rm.du.Def(from)
	if def == nil {
		return fmt.Errorf("no definition for %%%d", from)
	}
	if err := rm.du.Edit(def, func() { def.SetResultID(to) }); err != nil {
		return fmt.Errorf("rename %%%d to %%%d: %w", from, to, err)
	}
	rm.du.ReplaceAllUsesWith(from, to)
	return nil
}
