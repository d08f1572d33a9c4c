package opt

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownPass is returned for a pass name the registry does not know.
var ErrUnknownPass = errors.New("unknown pass")

// Options tunes passes built from the registry.
type Options struct {
	// Lenient turns remap inconsistencies into warnings.
	Lenient bool
}

// Factory builds a pass.
type Factory func(Options) Pass

var registry = map[string]Factory{
	PrivateToLocalName: func(Options) Pass { return PrivateToLocal{} },
	RemapIDsName:       func(o Options) Pass { return RemapIDs{Lenient: o.Lenient} },
}

// DefaultPipeline is the pass order used when none is configured.
var DefaultPipeline = []string{PrivateToLocalName, RemapIDsName}

// Names returns every registered pass name in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup builds the pass registered under name.
func Lookup(name string, opts Options) (Pass, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownPass, name, Names())
	}
	return f(opts), nil
}

// Build returns a manager running the named passes in order.
func Build(names []string, opts Options) (*Manager, error) {
	m := NewManager()
	var errs []error
	for _, name := range names {
		p, err := Lookup(name, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Add(p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}
