// ABOUTME: Decycle replaces repeated references with {"$ref": path} markers
// ABOUTME: Retrocycle restores the markers in place against the value's own root

package cycle

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/nainya/ndstore/pkg/record"
)

// RefKey is the marker field holding the path of the first occurrence
const RefKey = "$ref"

// Decycle returns a deep copy of v built from map[string]any, []any and
// scalars. The second and later occurrences of any map, slice or pointer
// are replaced by a marker naming the path of the first one, so the result
// is acyclic. Map keys are visited in sorted order.
func Decycle(v any) any {
	d := &decycler{seen: make(map[record.Ref]string)}
	return d.walk(v, Root)
}

type decycler struct {
	seen map[record.Ref]string
}

func (d *decycler) walk(v any, path string) any {
	if v == nil || isLeaf(v) {
		return v
	}

	if ref, ok := record.RefOf(v); ok {
		if first, hit := d.seen[ref]; hit {
			return map[string]any{RefKey: first}
		}
		d.seen[ref] = path
	}

	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for _, k := range record.Keys(c) {
			out[k] = d.walk(c[k], path+fieldAccessor(k))
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, el := range c {
			out[i] = d.walk(el, path+indexAccessor(i))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return d.walk(rv.Elem().Interface(), path)

	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		vals := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			vals[k] = iter.Value().Interface()
		}
		sort.Strings(keys)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = d.walk(vals[k], path+fieldAccessor(k))
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = d.walk(rv.Index(i).Interface(), path+indexAccessor(i))
		}
		return out

	case reflect.Struct:
		rt := rv.Type()
		out := make(map[string]any, rt.NumField())
		fields := make([]string, 0, rt.NumField())
		vals := make(map[string]any, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name, omitEmpty, skip := fieldName(f)
			if skip || (omitEmpty && isEmpty(rv.Field(i))) {
				continue
			}
			fields = append(fields, name)
			vals[name] = rv.Field(i).Interface()
		}
		sort.Strings(fields)
		for _, name := range fields {
			out[name] = d.walk(vals[name], path+fieldAccessor(name))
		}
		return out
	}
	return v
}

// fieldName reads the json tag of f the way encoding/json does
func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// isEmpty matches the omitempty rule: false, 0, nil and empty
// strings, slices, maps and arrays. Structs are never empty.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

var (
	jsonMarshaler = reflect.TypeFor[json.Marshaler]()
	textMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
)

// isLeaf reports whether v is copied as-is: scalars, byte slices and types
// that marshal themselves
func isLeaf(v any) bool {
	switch v.(type) {
	case string, bool, json.Number, []byte:
		return true
	}
	if _, ok := record.Number(v); ok {
		return true
	}
	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Pointer {
		return false
	}
	return rt.Implements(jsonMarshaler) || rt.Implements(textMarshaler)
}

// Retrocycle replaces every marker whose path parses with the value the
// path resolves to, mutating v in place. Markers with malformed or
// unresolvable paths are left untouched.
func Retrocycle(v any) any {
	var rez func(node any)
	rez = func(node any) {
		switch c := node.(type) {
		case map[string]any:
			for k, el := range c {
				if target, ok := resolveMarker(v, el); ok {
					c[k] = target
				} else {
					rez(el)
				}
			}
		case []any:
			for i, el := range c {
				if target, ok := resolveMarker(v, el); ok {
					c[i] = target
				} else {
					rez(el)
				}
			}
		}
	}
	rez(v)
	return v
}

func resolveMarker(root, v any) (any, bool) {
	path, ok := MarkerPath(v)
	if !ok {
		return nil, false
	}
	tokens, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return Resolve(root, tokens)
}

// MarkerPath returns the path of a {"$ref": path} marker
func MarkerPath(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	path, ok := m[RefKey].(string)
	return path, ok
}
