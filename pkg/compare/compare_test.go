// ABOUTME: Tests for dimension comparators and the comparator registry
// ABOUTME: Covers tri-state ordering, cross-kind ordering and collation

package compare

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nainya/ndstore/pkg/errs"
)

func TestDefaultTriState(t *testing.T) {
	cmp := Default("year")
	a := map[string]any{"year": 1900}
	b := map[string]any{"year": 1950}
	missing := map[string]any{"painter": "x"}

	assert.Equal(t, -1, cmp(a, b))
	assert.Equal(t, 1, cmp(b, a))
	assert.Equal(t, 0, cmp(a, map[string]any{"year": 1900.0}))
	assert.Equal(t, 0, cmp(nil, nil))
	assert.Equal(t, 1, cmp(nil, a))
	assert.Equal(t, -1, cmp(a, nil))
	assert.Equal(t, 0, cmp(missing, missing))
	assert.Equal(t, 1, cmp(missing, a))
	assert.Equal(t, -1, cmp(a, missing))
}

func TestValuesOrdersAcrossKinds(t *testing.T) {
	now := time.Now()
	vals := []any{struct{}{}, now, "b", 2, true, nil, json.Number("1.5"), "a", false}
	slices.SortStableFunc(vals, Values)

	assert.Equal(t, []any{nil, false, true, json.Number("1.5"), 2, "a", "b", now, struct{}{}}, vals)
}

func TestValuesNormalizesStrings(t *testing.T) {
	// precomposed vs combining acute accent
	assert.Equal(t, 0, Values("\u00e9", "e\u0301"))
}

func TestCollated(t *testing.T) {
	recs := []any{
		map[string]any{"name": "zebra"},
		map[string]any{"name": "Ärger"},
		map[string]any{"name": "apple"},
	}
	slices.SortStableFunc(recs, Collated("name", language.German))

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.(map[string]any)["name"].(string)
	}
	assert.Equal(t, []string{"apple", "Ärger", "zebra"}, names)
}

func TestGlobalKeepsOrder(t *testing.T) {
	recs := []any{map[string]any{"i": 2}, nil, map[string]any{"i": 1}}
	slices.SortStableFunc(recs, Global)
	assert.Equal(t, []any{map[string]any{"i": 2}, map[string]any{"i": 1}, nil}, recs)
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	byLen := func(a, b any) int {
		return cmpInt(len(a.(map[string]any)["name"].(string)), len(b.(map[string]any)["name"].(string)))
	}
	require.NoError(t, r.Register("name", byLen))
	assert.True(t, r.Has("name"))

	short := map[string]any{"name": "zz", "year": 2}
	long := map[string]any{"name": "aaaa", "year": 1}
	assert.Equal(t, -1, r.Lookup("name")(short, long))
	assert.Equal(t, 1, r.Lookup("year")(short, long))

	err = r.Register("", byLen)
	assert.ErrorIs(t, err, errs.ErrInvalidComparator)
	err = r.Register("x", nil)
	assert.ErrorIs(t, err, errs.ErrInvalidComparator)

	clone := r.Clone()
	require.NoError(t, clone.Register("year", Reverse(Default("year"))))
	assert.False(t, r.Has("year"))
	assert.Equal(t, 2, clone.Len())
}

func TestChainIsLexicographic(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	recs := []any{
		map[string]any{"a": 2, "b": 1},
		map[string]any{"a": 1, "b": 2},
		map[string]any{"a": 1, "b": 1},
	}
	slices.SortStableFunc(recs, r.Chain("a", "b"))

	assert.Equal(t, []any{
		map[string]any{"a": 1, "b": 1},
		map[string]any{"a": 1, "b": 2},
		map[string]any{"a": 2, "b": 1},
	}, recs)
}
