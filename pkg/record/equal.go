// ABOUTME: Deep equality and cycle-safe deep cloning for records
// ABOUTME: Numbers compare by value across Go numeric kinds

package record

import (
	"reflect"
)

type refPair struct{ a, b Ref }

// Equal reports deep equality of a and b. Numbers are equal when their
// values match regardless of Go type; cyclic structures terminate.
func Equal(a, b any) bool {
	return equal(a, b, make(map[refPair]bool))
}

func equal(a, b any, seen map[refPair]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := Number(a); ok {
		nb, ok := Number(b)
		return ok && na == nb
	}
	if _, ok := Number(b); ok {
		return false
	}

	ra, okA := RefOf(a)
	rb, okB := RefOf(b)
	if okA && okB {
		if ra == rb {
			return true
		}
		key := refPair{ra, rb}
		if seen[key] {
			return true
		}
		seen[key] = true
	}

	va, vb := indirect(reflect.ValueOf(a)), indirect(reflect.ValueOf(b))
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}

	switch va.Kind() {
	case reflect.Map:
		if vb.Kind() != reflect.Map || va.Len() != vb.Len() {
			return false
		}
		keyType := vb.Type().Key()
		iter := va.MapRange()
		for iter.Next() {
			k := iter.Key()
			if !k.Type().ConvertibleTo(keyType) {
				return false
			}
			other := vb.MapIndex(k.Convert(keyType))
			if !other.IsValid() || !equal(iter.Value().Interface(), other.Interface(), seen) {
				return false
			}
		}
		return true

	case reflect.Slice, reflect.Array:
		if vb.Kind() != reflect.Slice && vb.Kind() != reflect.Array {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !equal(va.Index(i).Interface(), vb.Index(i).Interface(), seen) {
				return false
			}
		}
		return true

	case reflect.Struct:
		if va.Type() != vb.Type() {
			return false
		}
		for i := 0; i < va.NumField(); i++ {
			if !va.Type().Field(i).IsExported() {
				continue
			}
			if !equal(va.Field(i).Interface(), vb.Field(i).Interface(), seen) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(va.Interface(), vb.Interface())
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// Clone deep-copies map[string]any and []any containers reachable from v.
// Shared containers stay shared in the copy and cycles are preserved. Other
// values are carried over by reference.
func Clone(v any) any {
	return clone(v, make(map[Ref]any))
}

func clone(v any, memo map[Ref]any) any {
	switch c := v.(type) {
	case map[string]any:
		ref, ok := RefOf(c)
		if ok {
			if done, hit := memo[ref]; hit {
				return done
			}
		}
		out := make(map[string]any, len(c))
		if ok {
			memo[ref] = out
		}
		for k, val := range c {
			out[k] = clone(val, memo)
		}
		return out

	case []any:
		ref, ok := RefOf(c)
		if ok {
			if done, hit := memo[ref]; hit {
				return done
			}
		}
		out := make([]any, len(c))
		if ok {
			memo[ref] = out
		}
		for i, val := range c {
			out[i] = clone(val, memo)
		}
		return out
	}
	return v
}

// ShallowCopy copies the top level of a map[string]any or []any. Other
// values are returned unchanged.
func ShallowCopy(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(c))
		copy(out, c)
		return out
	}
	return v
}
