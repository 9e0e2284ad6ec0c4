// ABOUTME: Tests for dimension paths, equality, cloning and projections
// ABOUTME: Covers nested maps, slices, structs and cyclic values

package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type painting struct {
	Painter string `json:"painter"`
	Year    int
	Meta    map[string]any `json:"meta"`
	hidden  string
}

func TestGetNestedPaths(t *testing.T) {
	rec := map[string]any{
		"painter": "Monet",
		"geo":     map[string]any{"city": "Paris", "coords": []any{48.8, 2.3}},
	}

	v, ok := Get(rec, "geo.city")
	require.True(t, ok)
	assert.Equal(t, "Paris", v)

	v, ok = Get(rec, "geo.coords.1")
	require.True(t, ok)
	assert.Equal(t, 2.3, v)

	_, ok = Get(rec, "geo.coords.7")
	assert.False(t, ok)
	_, ok = Get(rec, "geo.country")
	assert.False(t, ok)
	_, ok = Get(rec, "painter.name")
	assert.False(t, ok)

	v, ok = Get(rec, "")
	require.True(t, ok)
	assert.Equal(t, rec, v)
}

func TestGetStructFields(t *testing.T) {
	p := &painting{Painter: "Manet", Year: 1863, Meta: map[string]any{"room": 3}, hidden: "x"}

	v, ok := Get(p, "painter")
	require.True(t, ok)
	assert.Equal(t, "Manet", v)

	v, ok = Get(p, "Year")
	require.True(t, ok)
	assert.Equal(t, 1863, v)

	v, ok = Get(p, "meta.room")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	assert.False(t, Has(p, "hidden"))
}

func TestGetTypedMap(t *testing.T) {
	rec := map[string]int{"a": 1}
	v, ok := Get(rec, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSetCreatesIntermediateMaps(t *testing.T) {
	rec := map[string]any{}
	require.True(t, Set(rec, "a.b.c", 1))
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}, rec)

	assert.False(t, Set(rec, "", 1))
	assert.False(t, Set("scalar", "a", 1))
}

func TestNest(t *testing.T) {
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}}, Nest("a.b", 1))
	assert.Equal(t, map[string]any{"year": 1900}, Nest("year", 1900))
}

func TestDelete(t *testing.T) {
	rec := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
	assert.True(t, Delete(rec, "a.b"))
	assert.False(t, Delete(rec, "a.b"))
	assert.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, rec)
}

func TestIsStructured(t *testing.T) {
	assert.True(t, IsStructured(map[string]any{}))
	assert.True(t, IsStructured([]any{1}))
	assert.True(t, IsStructured(painting{}))
	assert.True(t, IsStructured(&painting{}))
	assert.False(t, IsStructured(nil))
	assert.False(t, IsStructured("text"))
	assert.False(t, IsStructured(42))
	assert.False(t, IsStructured((*painting)(nil)))
}

func TestNumber(t *testing.T) {
	for _, v := range []any{3, int8(3), uint16(3), float32(3), 3.0, json.Number("3")} {
		n, ok := Number(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 3.0, n)
	}
	_, ok := Number("3")
	assert.False(t, ok)
	_, ok = Number(true)
	assert.False(t, ok)
}

func TestSameUsesReferenceIdentity(t *testing.T) {
	a := map[string]any{"x": 1}
	b := map[string]any{"x": 1}
	assert.True(t, Same(a, a))
	assert.False(t, Same(a, b))
	assert.False(t, Same(1, 1))
}

type wrapped struct {
	N int
}

type wrapper struct {
	Inner wrapped
	Label string
}

func TestSameDistinguishesStructFromFirstField(t *testing.T) {
	w := &wrapper{Inner: wrapped{N: 1}, Label: "outer"}
	assert.False(t, Same(&w.Inner, w))
	assert.True(t, Same(w, w))
	assert.False(t, Equal(&w.Inner, w))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(map[string]any{"a": 1, "b": []any{1.0, "x"}}, map[string]any{"a": 1.0, "b": []any{1, "x"}}))
	assert.False(t, Equal(map[string]any{"a": 1}, map[string]any{"a": 2}))
	assert.False(t, Equal(map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}))
	assert.False(t, Equal(1, "1"))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, map[string]any{}))
	assert.True(t, Equal(painting{Painter: "a"}, painting{Painter: "a"}))
}

func TestEqualTerminatesOnCycles(t *testing.T) {
	a := map[string]any{"name": "a"}
	a["self"] = a
	b := map[string]any{"name": "a"}
	b["self"] = b

	assert.True(t, Equal(a, b))
}

func TestClonePreservesSharingAndCycles(t *testing.T) {
	shared := map[string]any{"v": 1}
	src := map[string]any{"left": shared, "right": shared}
	src["self"] = src

	out, ok := Clone(src).(map[string]any)
	require.True(t, ok)
	assert.False(t, Same(out, src))
	assert.True(t, Same(out["left"], out["right"]))
	assert.False(t, Same(out["left"], shared))
	assert.True(t, Same(out["self"], out))
}

func TestSubObjKeepsNesting(t *testing.T) {
	rec := map[string]any{"a": 1, "b": map[string]any{"c": 2, "d": 3}, "e": 4}
	assert.Equal(t,
		map[string]any{"a": 1, "b": map[string]any{"c": 2}},
		SubObj(rec, []string{"a", "b.c", "missing"}))
}

func TestSkimDoesNotTouchSource(t *testing.T) {
	rec := map[string]any{"a": 1, "b": map[string]any{"c": 2, "d": 3}}
	out := Skim(rec, []string{"b.c"})

	assert.Equal(t, map[string]any{"a": 1, "b": map[string]any{"d": 3}}, out)
	assert.Equal(t, 2, rec["b"].(map[string]any)["c"])
}

func TestFlatten(t *testing.T) {
	rec := map[string]any{"b": []any{1, 2}, "a": map[string]any{"z": "x"}}
	assert.Equal(t, []any{"x", 1, 2}, Flatten(rec))
	assert.Equal(t, []any{"z", "x", "0", 1, "1", 2}, FlattenKeyed(rec))
}

func TestSplitOn(t *testing.T) {
	rec := map[string]any{"id": 1, "tags": map[string]any{"a": "x", "b": "y"}}
	out := SplitOn(rec, "tags")
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{"id": 1, "tags": map[string]any{"a": "x"}}, out[0])
	assert.Equal(t, map[string]any{"id": 1, "tags": map[string]any{"b": "y"}}, out[1])

	list := map[string]any{"id": 2, "tags": []any{"p", "q", "r"}}
	assert.Len(t, SplitOn(list, "tags"), 3)

	plain := map[string]any{"id": 3, "tags": "none"}
	assert.Equal(t, []any{plain}, SplitOn(plain, "tags"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty(map[string]any{"a": 1}))
}
