package callgraph_test

import (
	"testing"

	"spvopt/internal/callgraph"
	"spvopt/internal/defuse"
	"spvopt/internal/spirv"
)

func TestEntryPointsReaching(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)

	leaf := b.Function(void, fnType)
	leaf.Block()
	leaf.Return()

	// mid calls leaf twice and recurses into itself
	mid := b.Function(void, fnType)
	mid.Block()
	mid.Call(void, leaf.ID())
	mid.Call(void, leaf.ID())
	mid.Call(void, mid.ID())
	mid.Return()

	epA := b.Function(void, fnType)
	epA.Block()
	epA.Call(void, mid.ID())
	epA.Return()

	epB := b.Function(void, fnType)
	epB.Block()
	epB.Call(void, leaf.ID())
	epB.Return()

	orphan := b.Function(void, fnType)
	orphan.Block()
	orphan.Return()

	b.EntryPoint(spirv.ExecutionModelGLCompute, epA.ID(), "a")
	b.EntryPoint(spirv.ExecutionModelGLCompute, epB.ID(), "b")

	m := b.Module()
	du, err := defuse.New(m)
	if err != nil {
		t.Fatal(err)
	}
	a := callgraph.New(m, du)

	tests := []struct {
		name string
		fn   *spirv.Function
		want []*spirv.Function
	}{
		{"leaf", leaf.Function(), []*spirv.Function{epB.Function(), epA.Function()}},
		{"mid", mid.Function(), []*spirv.Function{epA.Function()}},
		{"entry_itself", epA.Function(), []*spirv.Function{epA.Function()}},
		{"orphan", orphan.Function(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.EntryPointsReaching(tt.fn)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entry points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("entry %d: got %%%d, want %%%d", i, got[i].ResultID(), tt.want[i].ResultID())
				}
			}
		})
	}
	if !a.IsEntryPoint(epB.Function()) || a.IsEntryPoint(leaf.Function()) {
		t.Fatalf("IsEntryPoint wrong")
	}
}
