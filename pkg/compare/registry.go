// ABOUTME: Per-dimension comparator registry with default fallback
// ABOUTME: Chains combine several dimensions into a lexicographic order

package compare

import (
	"github.com/nainya/ndstore/pkg/errs"
)

// Registry maps dimensions to comparators
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates a registry seeded with the given comparators
func NewRegistry(seed map[string]Func) (*Registry, error) {
	r := &Registry{funcs: make(map[string]Func, len(seed))}
	for dim, fn := range seed {
		if err := r.Register(dim, fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register binds fn to dim, replacing any previous comparator
func (r *Registry) Register(dim string, fn Func) error {
	if dim == "" {
		return errs.E(errs.InvalidComparator, "Register", "empty dimension")
	}
	if fn == nil {
		return errs.E(errs.InvalidComparator, "Register", "nil comparator for %q", dim)
	}
	r.funcs[dim] = fn
	return nil
}

// Lookup returns the comparator for dim, falling back to Default
func (r *Registry) Lookup(dim string) Func {
	if r == nil {
		return Default(dim)
	}
	if fn, ok := r.funcs[dim]; ok {
		return fn
	}
	return Default(dim)
}

// Has reports whether dim has a registered comparator
func (r *Registry) Has(dim string) bool {
	_, ok := r.funcs[dim]
	return ok
}

// Chain orders by each dim in turn, returning the first non-zero result
func (r *Registry) Chain(dims ...string) Func {
	fns := make([]Func, len(dims))
	for i, dim := range dims {
		fns[i] = r.Lookup(dim)
	}
	return func(a, b any) int {
		for _, fn := range fns {
			if c := fn(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Clone returns an independent copy of the registry
func (r *Registry) Clone() *Registry {
	out := &Registry{funcs: make(map[string]Func, len(r.funcs))}
	for dim, fn := range r.funcs {
		out.funcs[dim] = fn
	}
	return out
}

// Len returns the number of registered dimensions
func (r *Registry) Len() int { return len(r.funcs) }
