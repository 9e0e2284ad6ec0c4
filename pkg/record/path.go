// ABOUTME: Dimension paths for addressing nested fields inside records
// ABOUTME: Resolves dot-separated paths over maps, slices, structs and pointers

package record

import (
	"reflect"
	"strconv"
	"strings"
)

// Segments splits a dimension into its path segments
func Segments(dim string) []string {
	if dim == "" {
		return nil
	}
	return strings.Split(dim, ".")
}

// Get resolves dim inside v. The empty dimension resolves to v itself.
func Get(v any, dim string) (any, bool) {
	cur := v
	for _, seg := range Segments(dim) {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether dim resolves inside v
func Has(v any, dim string) bool {
	_, ok := Get(v, dim)
	return ok
}

func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		val, ok := c[seg]
		return val, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return stepReflect(reflect.ValueOf(cur), seg)
}

func stepReflect(rv reflect.Value, seg string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true

	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true

	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			if f.Name == seg || jsonName(f) == seg {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// Set assigns val at dim inside v, creating intermediate maps as needed.
// Only map[string]any and []any containers are writable.
func Set(v any, dim string, val any) bool {
	segs := Segments(dim)
	if len(segs) == 0 {
		return false
	}

	cur := v
	for i, seg := range segs {
		last := i == len(segs)-1
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = val
				return true
			}
			next, ok := c[seg]
			if !ok || next == nil {
				next = map[string]any{}
				c[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return false
			}
			if last {
				c[idx] = val
				return true
			}
			cur = c[idx]
		default:
			return false
		}
	}
	return false
}

// Nest builds a fresh record holding val at dim, e.g. Nest("a.b", 1) is
// {"a": {"b": 1}}
func Nest(dim string, val any) map[string]any {
	segs := Segments(dim)
	if len(segs) == 0 {
		return map[string]any{}
	}
	out := map[string]any{segs[len(segs)-1]: val}
	for i := len(segs) - 2; i >= 0; i-- {
		out = map[string]any{segs[i]: out}
	}
	return out
}

// Delete removes the field at dim. It reports whether something was removed.
func Delete(v any, dim string) bool {
	segs := Segments(dim)
	if len(segs) == 0 {
		return false
	}
	parent, ok := Get(v, strings.Join(segs[:len(segs)-1], "."))
	if !ok {
		return false
	}
	m, ok := parent.(map[string]any)
	if !ok {
		return false
	}
	if _, exists := m[segs[len(segs)-1]]; !exists {
		return false
	}
	delete(m, segs[len(segs)-1])
	return true
}
