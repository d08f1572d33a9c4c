package opt_test

import (
	"errors"
	"slices"
	"testing"

	"spvopt/internal/diag"
	"spvopt/internal/opt"
	"spvopt/internal/spirv"
)

type fixedPass struct {
	name   string
	status opt.Status
	runs   *int
}

func (p fixedPass) Name() string { return p.name }

func (p fixedPass) Run(*opt.Context) opt.Status {
	*p.runs++
	return p.status
}

func TestStatusCombine(t *testing.T) {
	tests := []struct {
		a, b, want opt.Status
	}{
		{opt.NoChange, opt.NoChange, opt.NoChange},
		{opt.NoChange, opt.Changed, opt.Changed},
		{opt.Changed, opt.NoChange, opt.Changed},
		{opt.Changed, opt.Failure, opt.Failure},
	}
	for _, tt := range tests {
		if got := tt.a.Combine(tt.b); got != tt.want {
			t.Fatalf("%v.Combine(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestManagerStopsAtFailure(t *testing.T) {
	var runs int
	m := opt.NewManager(
		fixedPass{"first", opt.Changed, &runs},
		fixedPass{"broken", opt.Failure, &runs},
		fixedPass{"never", opt.Changed, &runs},
	)
	bag := diag.NewBag(0)
	ctx := opt.NewContext(spirv.NewModule(spirv.Version1_0), opt.WithReporter(diag.BagReporter{Bag: bag}))

	if st := m.Run(ctx); st != opt.Failure {
		t.Fatalf("status = %v, want failure", st)
	}
	if runs != 2 {
		t.Fatalf("ran %d passes, want 2", runs)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.OptPassFailed {
		t.Fatalf("expected one pass-failed error, got %v", bag.Items())
	}
	phases := m.Timer().Phases()
	if len(phases) != 2 || phases[0].Note != "changed" || phases[1].Note != "failure" {
		t.Fatalf("unexpected timings: %+v", phases)
	}
}

func TestRegistry(t *testing.T) {
	if !slices.Equal(opt.Names(), []string{opt.PrivateToLocalName, opt.RemapIDsName}) {
		t.Fatalf("names = %v", opt.Names())
	}
	p, err := opt.Lookup(opt.RemapIDsName, opt.Options{Lenient: true})
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := p.(opt.RemapIDs); !ok || !r.Lenient {
		t.Fatalf("lookup built %#v", p)
	}
	if _, err := opt.Lookup("inline", opt.Options{}); !errors.Is(err, opt.ErrUnknownPass) {
		t.Fatalf("expected ErrUnknownPass, got %v", err)
	}

	m, err := opt.Build(opt.DefaultPipeline, opt.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(m.Names(), opt.DefaultPipeline) {
		t.Fatalf("pipeline = %v", m.Names())
	}
	if _, err := opt.Build([]string{"a", opt.RemapIDsName, "b"}, opt.Options{}); !errors.Is(err, opt.ErrUnknownPass) {
		t.Fatalf("expected ErrUnknownPass, got %v", err)
	}
}

func TestDefaultPipelineOnEmptyModule(t *testing.T) {
	m, err := opt.Build(opt.DefaultPipeline, opt.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if st := m.Run(opt.NewContext(spirv.NewModule(spirv.Version1_5))); st != opt.NoChange {
		t.Fatalf("status = %v, want no-change", st)
	}
}
