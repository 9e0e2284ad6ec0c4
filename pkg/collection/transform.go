// ABOUTME: Relational transformations producing bred collections
// ABOUTME: Join, concat, split, group, set difference and projections

package collection

import (
	"github.com/nainya/ndstore/pkg/cycle"
	"github.com/nainya/ndstore/pkg/record"
)

// DefaultJoinKey is the field receiving the right-hand record of a join
const DefaultJoinKey = "joined"

// Sequence is anything that can hand out a record slice
type Sequence interface {
	Fetch() []any
}

// Records adapts a plain slice to Sequence
type Records []any

// Fetch returns the slice itself
func (r Records) Fetch() []any { return r }

// Join attaches to every record i holding key1 the first later record j
// whose value at key2 equals it. Each record i yields at most one output,
// unlike Concat, which keeps every later pair. The output is a copy of i
// with pos set to j, or to j projected onto selectKeys.
func (c *Collection) Join(key1, key2, pos string, selectKeys ...string) *Collection {
	return c.pair(key1, key2, pos, selectKeys, true, record.Equal)
}

// Concat attaches every later record holding key2 to every record holding
// key1, regardless of their values
func (c *Collection) Concat(key1, key2, pos string, selectKeys ...string) *Collection {
	return c.pair(key1, key2, pos, selectKeys, false, func(any, any) bool { return true })
}

// pair walks the forward pairs (i, j) with i < j where i holds key1 and j
// holds key2, keeping those whose values match
func (c *Collection) pair(key1, key2, pos string, selectKeys []string, firstOnly bool, match func(lv, rv any) bool) *Collection {
	if key1 == "" || key2 == "" {
		return c.breed([]any{})
	}
	if pos == "" {
		pos = DefaultJoinKey
	}
	var out []any
	for i, left := range c.records {
		lv, ok := record.Get(left, key1)
		if !ok {
			continue
		}
		for _, right := range c.records[i+1:] {
			rv, ok := record.Get(right, key2)
			if !ok || !match(lv, rv) {
				continue
			}
			joined, ok := copyAsMap(left)
			if !ok {
				continue
			}
			if len(selectKeys) > 0 {
				joined[pos] = record.SubObj(right, selectKeys)
			} else {
				joined[pos] = right
			}
			out = append(out, joined)
			if firstOnly {
				break
			}
		}
	}
	return c.breed(out)
}

// copyAsMap returns a deep copy of rec as a map. Structs and pointers go
// through the cycle codec so shared and cyclic values survive.
func copyAsMap(rec any) (map[string]any, bool) {
	if m, ok := record.Clone(rec).(map[string]any); ok {
		return m, true
	}
	m, ok := cycle.Retrocycle(cycle.Decycle(rec)).(map[string]any)
	return m, ok
}

// Split explodes every record along the structured value at key
func (c *Collection) Split(key string) *Collection {
	var out []any
	for _, rec := range c.records {
		out = append(out, record.SplitOn(rec, key)...)
	}
	return c.breed(out)
}

// GroupBy partitions the records by the value at key, in order of first
// appearance. Records without key belong to no group.
func (c *Collection) GroupBy(key string) []*Collection {
	var (
		values []any
		groups [][]any
	)
	for _, rec := range c.records {
		v, ok := record.Get(rec, key)
		if !ok {
			continue
		}
		slot := -1
		for i, seen := range values {
			if record.Equal(seen, v) {
				slot = i
				break
			}
		}
		if slot < 0 {
			values = append(values, v)
			groups = append(groups, nil)
			slot = len(groups) - 1
		}
		groups[slot] = append(groups[slot], rec)
	}

	out := make([]*Collection, len(groups))
	for i, g := range groups {
		out[i] = c.breed(g)
		out[i].cursor = 0
	}
	return out
}

// Diff returns the records with no deeply equal counterpart in other
func (c *Collection) Diff(other Sequence) *Collection {
	return c.breed(c.partition(other, false))
}

// Intersect returns the records with a deeply equal counterpart in other
func (c *Collection) Intersect(other Sequence) *Collection {
	return c.breed(c.partition(other, true))
}

func (c *Collection) partition(other Sequence, keep bool) []any {
	var rhs []any
	if other != nil {
		rhs = other.Fetch()
	}
	var out []any
	for _, rec := range c.records {
		found := false
		for _, o := range rhs {
			if record.Equal(rec, o) {
				found = true
				break
			}
		}
		if found == keep {
			out = append(out, rec)
		}
	}
	return out
}

// Skim returns copies of the records without keys. Records left empty are
// dropped.
func (c *Collection) Skim(keys ...string) *Collection {
	var out []any
	for _, rec := range c.records {
		if s := record.Skim(rec, keys); !record.IsEmpty(s) {
			out = append(out, s)
		}
	}
	return c.breed(out)
}

// Keep returns new records holding only keys. Records without any of them
// are dropped.
func (c *Collection) Keep(keys ...string) *Collection {
	var out []any
	for _, rec := range c.records {
		if s := record.SubObj(rec, keys); !record.IsEmpty(s) {
			out = append(out, s)
		}
	}
	return c.breed(out)
}
