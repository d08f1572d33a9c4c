package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"spvopt/internal/config"
	"spvopt/internal/diag"
	"spvopt/internal/driver"
	"spvopt/internal/opt"
	"spvopt/internal/spirv"
)

// shader returns a module whose only Private variable is stored by main.
func shader(t *testing.T, v spirv.Version) []byte {
	t.Helper()
	b := spirv.NewBuilder(v)
	b.Capability(spirv.CapabilityShader)
	b.MemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	f32 := b.TypeFloat(32)
	ptr := b.TypePointer(spirv.StorageClassPrivate, f32)
	one := b.Constant(f32, 0x3f800000)
	g := b.Variable(ptr, spirv.StorageClassPrivate)
	b.Name(g, "counter")

	main := b.Function(void, fnType)
	main.Block()
	main.Store(g, one)
	main.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, main.ID(), "main")

	data, err := b.Module().Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestOptimizeModulePromotesAndCanonicalizes(t *testing.T) {
	cfg := config.Default()
	in := shader(t, spirv.Version1_0)
	res := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{})
	if res.Status != opt.Changed {
		t.Fatalf("status = %v, want changed; diagnostics: %v", res.Status, res.Bag.Items())
	}
	m, err := spirv.Decode(res.Output)
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	for _, inst := range m.TypesValues() {
		if inst.Opcode() == spirv.OpVariable {
			t.Fatalf("module-scope variable left: %v", inst)
		}
	}

	again := driver.OptimizeModule(context.Background(), res.Output, cfg, driver.Options{})
	if again.Status != opt.NoChange {
		t.Fatalf("second run = %v, want no-change", again.Status)
	}
	if !bytes.Equal(again.Output, res.Output) {
		t.Fatalf("no-change output differs from its input")
	}
}

func TestRepeatedPassReportsOnce(t *testing.T) {
	b := spirv.NewBuilder(spirv.Version1_0)
	void := b.TypeVoid()
	fnType := b.TypeFunction(void)
	f32 := b.TypeFloat(32)
	ptr := b.TypePointer(spirv.StorageClassPrivate, f32)
	g := b.Variable(ptr, spirv.StorageClassPrivate)
	main := b.Function(void, fnType)
	main.Block()
	// a copied pointer keeps the variable global
	main.Inst(spirv.OpCopyObject, ptr, true, spirv.IDOperand(g))
	main.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, main.ID(), "main")
	in, err := b.Module().Encode()
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Pipeline.Passes = []string{opt.PrivateToLocalName, opt.PrivateToLocalName}
	res := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{})
	if res.Status != opt.NoChange {
		t.Fatalf("status = %v, want no-change; diagnostics: %v", res.Status, res.Bag.Items())
	}
	n := 0
	for _, d := range res.Bag.Items() {
		if d.Code == diag.OptUnsupportedUse {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("got %d unsupported-use reports, want 1: %v", n, res.Bag.Items())
	}
}

func TestOptimizeModuleErrors(t *testing.T) {
	restricted := config.Default()
	restricted.Input.Versions = ">= 1.5"

	tests := []struct {
		name string
		data []byte
		cfg  config.Config
		code diag.Code
	}{
		{"garbage", []byte{1, 2, 3, 4, 5, 6, 7, 8}, config.Default(), diag.IODecodeError},
		{"version", shader(t, spirv.Version1_0), restricted, diag.CfgVersionRejects},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := driver.OptimizeModule(context.Background(), tt.data, tt.cfg, driver.Options{})
			if res.Status != opt.Failure || res.Output != nil {
				t.Fatalf("status = %v, output %d bytes; want failure without output", res.Status, len(res.Output))
			}
			if !hasCode(res.Bag, tt.code) {
				t.Fatalf("missing %v: %v", tt.code, res.Bag.Items())
			}
		})
	}
}

func TestOptimizeModuleTimings(t *testing.T) {
	res := driver.OptimizeModule(context.Background(), shader(t, spirv.Version1_4), config.Default(),
		driver.Options{Timings: true, Path: "a.spv"})
	if !hasCode(res.Bag, diag.ObsTimings) {
		t.Fatalf("no timing diagnostic: %v", res.Bag.Items())
	}
	var names []string
	for _, p := range res.Timing.Phases {
		names = append(names, p.Name)
	}
	for _, want := range []string{"decode", opt.PrivateToLocalName, opt.RemapIDsName, "encode"} {
		if !slices.Contains(names, want) {
			t.Fatalf("phases %v miss %s", names, want)
		}
	}
}

func TestOptimizeModuleCache(t *testing.T) {
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	in := shader(t, spirv.Version1_4)

	first := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{Cache: cache})
	if first.Cached || first.Status != opt.Changed {
		t.Fatalf("first run: cached=%v status=%v", first.Cached, first.Status)
	}
	second := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{Cache: cache})
	if !second.Cached {
		t.Fatalf("second run missed the cache")
	}
	if second.Status != first.Status || !bytes.Equal(second.Output, first.Output) {
		t.Fatalf("cached result differs")
	}
	if second.Bag.Len() != first.Bag.Len() {
		t.Fatalf("cached diagnostics: %d, want %d", second.Bag.Len(), first.Bag.Len())
	}

	cfg.Remap.Lenient = true
	third := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{Cache: cache})
	if third.Cached {
		t.Fatalf("different settings hit the same cache entry")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	cfg.Remap.Lenient = false
	if again := driver.OptimizeModule(context.Background(), in, cfg, driver.Options{Cache: cache}); again.Cached {
		t.Fatalf("hit after DropAll")
	}
}

func TestOptimizeFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.spv")
	b := filepath.Join(dir, "b.spv")
	missing := filepath.Join(dir, "missing.spv")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, shader(t, spirv.Version1_3), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	outDir := filepath.Join(dir, "out")
	events := make(chan driver.Event, 256)

	results, err := driver.OptimizeFiles(context.Background(), driver.Request{
		Files:  []string{a, missing, b},
		Config: config.Default(),
		Jobs:   2,
		OutDir: outDir,
		Sink:   driver.ChannelSink{Ch: events},
	})
	close(events)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[0].Path != a || results[1].Path != missing || results[2].Path != b {
		t.Fatalf("results out of order: %+v", results)
	}
	if results[1].Status != opt.Failure || !hasCode(results[1].Bag, diag.IOLoadFileError) {
		t.Fatalf("missing file not reported: %+v", results[1])
	}
	for _, r := range []driver.FileResult{results[0], results[2]} {
		if r.Status != opt.Changed || r.OutPath != filepath.Join(outDir, filepath.Base(r.Path)) {
			t.Fatalf("unexpected result: %+v", r)
		}
		written, err := os.ReadFile(r.OutPath)
		if err != nil || !bytes.Equal(written, r.Output) {
			t.Fatalf("output file mismatch: %v", err)
		}
	}
	if driver.CombinedStatus(results) != opt.Failure {
		t.Fatalf("combined status = %v", driver.CombinedStatus(results))
	}

	done := 0
	for ev := range events {
		if ev.Status == driver.StatusDone && ev.Stage == driver.StageWrite {
			done++
		}
	}
	if done != 2 {
		t.Fatalf("got %d finished files, want 2", done)
	}
}

func TestOptimizeFilesSingleOutputNeedsOneInput(t *testing.T) {
	_, err := driver.OptimizeFiles(context.Background(), driver.Request{
		Files:  []string{"a.spv", "b.spv"},
		Config: config.Default(),
		Output: "out.spv",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestOptimizeFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.OptimizeFiles(ctx, driver.Request{
		Files:  []string{"a.spv"},
		Config: config.Default(),
	})
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
}
