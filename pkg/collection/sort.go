// ABOUTME: Comparator registration and in-place ordering of records
// ABOUTME: Sorting is stable; every ordering call returns the collection

package collection

import (
	"math/rand/v2"
	"slices"

	"github.com/nainya/ndstore/pkg/compare"
)

// RegisterComparator binds fn to dim for sorting and query evaluation
func (c *Collection) RegisterComparator(dim string, fn compare.Func) error {
	if err := c.cmps.Register(dim, fn); err != nil {
		c.log.Error().Err(err).Str("dimension", dim).Msg("comparator rejected")
		return err
	}
	return nil
}

// Comparator returns the comparator used for dim
func (c *Collection) Comparator(dim string) compare.Func {
	return c.cmps.Lookup(dim)
}

// Sort orders the records by the configured SortBy dimensions, or by the
// global comparator when none are configured
func (c *Collection) Sort() *Collection {
	if len(c.sortBy) == 0 {
		return c.SortFunc(compare.Global)
	}
	return c.SortFunc(c.cmps.Chain(c.sortBy...))
}

// SortBy orders the records lexicographically by dims
func (c *Collection) SortBy(dims ...string) *Collection {
	if len(dims) == 0 {
		return c.Sort()
	}
	return c.SortFunc(c.cmps.Chain(dims...))
}

// SortFunc orders the records with fn
func (c *Collection) SortFunc(fn compare.Func) *Collection {
	if fn == nil {
		return c
	}
	slices.SortStableFunc(c.records, func(a, b any) int { return fn(a, b) })
	return c
}

// Reverse reverses the record order
func (c *Collection) Reverse() *Collection {
	slices.Reverse(c.records)
	return c
}

// Shuffle randomizes the record order
func (c *Collection) Shuffle() *Collection {
	rand.Shuffle(len(c.records), func(i, j int) {
		c.records[i], c.records[j] = c.records[j], c.records[i]
	})
	return c
}
