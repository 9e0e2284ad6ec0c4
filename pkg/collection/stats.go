// ABOUTME: Descriptive statistics over a dimension
// ABOUTME: Non-numeric and missing values are skipped, NaN included

package collection

import (
	"math"

	"github.com/nainya/ndstore/pkg/record"
)

// Count returns the number of records holding dim, or Len when dim is empty
func (c *Collection) Count(dim string) int {
	if dim == "" {
		return len(c.records)
	}
	n := 0
	for _, rec := range c.records {
		if v, ok := record.Get(rec, dim); ok && v != nil {
			n++
		}
	}
	return n
}

func (c *Collection) samples(dim string) []float64 {
	var out []float64
	for _, rec := range c.records {
		v, ok := record.Get(rec, dim)
		if !ok {
			continue
		}
		f, ok := record.Number(v)
		if !ok || math.IsNaN(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Sum adds the numeric values at dim
func (c *Collection) Sum(dim string) (float64, bool) {
	if dim == "" {
		return 0, false
	}
	var sum float64
	for _, f := range c.samples(dim) {
		sum += f
	}
	return sum, true
}

// Mean returns the arithmetic mean of the numeric values at dim
func (c *Collection) Mean(dim string) (float64, bool) {
	if dim == "" {
		return 0, false
	}
	xs := c.samples(dim)
	if len(xs) == 0 {
		return 0, true
	}
	return mean(xs), true
}

func mean(xs []float64) float64 {
	var sum float64
	for _, f := range xs {
		sum += f
	}
	return sum / float64(len(xs))
}

// Stddev returns the population standard deviation at dim
func (c *Collection) Stddev(dim string) (float64, bool) {
	if dim == "" {
		return 0, false
	}
	xs := c.samples(dim)
	if len(xs) == 0 {
		return 0, true
	}
	mu := mean(xs)
	var ss float64
	for _, f := range xs {
		ss += (f - mu) * (f - mu)
	}
	return math.Sqrt(ss / float64(len(xs))), true
}

// Min returns the smallest numeric value at dim
func (c *Collection) Min(dim string) (float64, bool) {
	return c.extreme(dim, func(a, b float64) bool { return a < b })
}

// Max returns the largest numeric value at dim
func (c *Collection) Max(dim string) (float64, bool) {
	return c.extreme(dim, func(a, b float64) bool { return a > b })
}

func (c *Collection) extreme(dim string, better func(a, b float64) bool) (float64, bool) {
	if dim == "" {
		return 0, false
	}
	xs := c.samples(dim)
	if len(xs) == 0 {
		return 0, false
	}
	best := xs[0]
	for _, f := range xs[1:] {
		if better(f, best) {
			best = f
		}
	}
	return best, true
}
