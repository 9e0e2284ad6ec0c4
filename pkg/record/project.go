// ABOUTME: Projections over records: keep, skim, flatten and split
// ABOUTME: Map keys are visited in sorted order so output is deterministic

package record

import "strconv"

// SubObj builds a new record containing only the given dimensions.
// Nested dimensions stay nested in the output.
func SubObj(v any, keys []string) map[string]any {
	out := map[string]any{}
	for _, key := range keys {
		if val, ok := Get(v, key); ok {
			Set(out, key, val)
		}
	}
	return out
}

// Skim returns a deep copy of v without the given dimensions
func Skim(v any, keys []string) any {
	out := Clone(v)
	for _, key := range keys {
		Delete(out, key)
	}
	return out
}

// IsEmpty reports whether v is nil or an empty map or slice
func IsEmpty(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(c) == 0
	case []any:
		return len(c) == 0
	}
	return false
}

// Flatten returns the leaf values of v in depth-first order
func Flatten(v any) []any {
	var out []any
	walkLeaves(v, "", make(map[Ref]bool), func(_ string, leaf any) {
		out = append(out, leaf)
	})
	return out
}

// FlattenKeyed returns alternating leaf keys and leaf values of v
func FlattenKeyed(v any) []any {
	var out []any
	walkLeaves(v, "", make(map[Ref]bool), func(key string, leaf any) {
		out = append(out, key, leaf)
	})
	return out
}

func walkLeaves(v any, key string, seen map[Ref]bool, fn func(string, any)) {
	if ref, ok := RefOf(v); ok {
		if seen[ref] {
			return
		}
		seen[ref] = true
	}
	switch c := v.(type) {
	case map[string]any:
		for _, k := range Keys(c) {
			walkLeaves(c[k], k, seen, fn)
		}
	case []any:
		for i, el := range c {
			walkLeaves(el, strconv.Itoa(i), seen, fn)
		}
	default:
		fn(key, v)
	}
}

// SplitOn explodes v along the structured value at key. A map value yields
// one copy per leaf, with key set to {leafKey: leaf}; a slice value yields
// one copy per element. Records without a structured value at key are
// returned as a single copy.
func SplitOn(v any, key string) []any {
	child, ok := Get(v, key)
	if !ok || !IsStructured(child) {
		return []any{Clone(v)}
	}

	var out []any
	switch c := child.(type) {
	case []any:
		for _, el := range c {
			cp := Clone(v)
			Set(cp, key, el)
			out = append(out, cp)
		}
	default:
		walkLeaves(c, "", make(map[Ref]bool), func(leafKey string, leaf any) {
			cp := Clone(v)
			Set(cp, key, map[string]any{leafKey: leaf})
			out = append(out, cp)
		})
	}
	return out
}
