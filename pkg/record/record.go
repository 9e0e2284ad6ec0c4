// ABOUTME: Record classification, reference identity and numeric coercion
// ABOUTME: Records are opaque structured values without an enforced schema

package record

import (
	"encoding/json"
	"reflect"
	"sort"
	"unsafe"
)

// IsStructured reports whether v may be stored in a collection: maps,
// slices, arrays, structs and non-nil pointers. Scalars and nil are not.
func IsStructured(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case map[string]any, []any:
		return true
	case string, json.Number, []byte:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	case reflect.Pointer:
		return !rv.IsNil()
	}
	return false
}

// Ref is the reference identity of a map, slice or pointer value. The
// type is part of the identity since a struct and its first field share
// an address.
type Ref struct {
	ptr unsafe.Pointer
	len int
	typ reflect.Type
}

// RefOf returns the identity of v. Values without a stable identity
// (scalars, nil and empty slices) report false.
func RefOf(v any) (Ref, bool) {
	if v == nil {
		return Ref{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return Ref{}, false
		}
		return Ref{ptr: rv.UnsafePointer(), typ: rv.Type()}, true
	case reflect.Slice:
		// zero-length slices may all share one allocation
		if rv.Len() == 0 {
			return Ref{}, false
		}
		return Ref{ptr: rv.UnsafePointer(), len: rv.Len(), typ: rv.Type()}, true
	case reflect.Pointer:
		if rv.IsNil() {
			return Ref{}, false
		}
		return Ref{ptr: rv.UnsafePointer(), typ: rv.Type()}, true
	}
	return Ref{}, false
}

// Same reports whether a and b share reference identity
func Same(a, b any) bool {
	ra, ok := RefOf(a)
	if !ok {
		return false
	}
	rb, ok := RefOf(b)
	return ok && ra == rb
}

// Number converts numeric values to float64. Strings, bools and other
// kinds are not numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case nil, bool, string:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Keys returns the keys of m in sorted order
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
