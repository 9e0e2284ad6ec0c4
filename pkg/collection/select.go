// ABOUTME: Chainable selections compiled into predicates over the records
// ABOUTME: Execution scans once and breeds a collection of the matches

package collection

import (
	"time"

	"github.com/nainya/ndstore/pkg/query"
	"github.com/nainya/ndstore/pkg/record"
)

// Selection accumulates conditions against a collection
type Selection struct {
	c       *Collection
	builder *query.Builder
}

// Select starts a selection with the condition dim op value
func (c *Collection) Select(dim, op string, value any) *Selection {
	return &Selection{c: c, builder: query.NewBuilder(dim, op, value)}
}

// And adds a condition that must also hold
func (s *Selection) And(dim, op string, value any) *Selection {
	s.builder.And(dim, op, value)
	return s
}

// Or adds an alternative condition
func (s *Selection) Or(dim, op string, value any) *Selection {
	s.builder.Or(dim, op, value)
	return s
}

// Not adds a condition that must not hold
func (s *Selection) Not(dim, op string, value any) *Selection {
	s.builder.Not(dim, op, value)
	return s
}

// Break starts a new condition group
func (s *Selection) Break() *Selection {
	s.builder.Break()
	return s
}

// Query returns the conditions collected so far
func (s *Selection) Query() (query.Query, error) {
	return s.builder.Build()
}

// Predicate compiles the selection
func (s *Selection) Predicate() (query.Predicate, error) {
	q, err := s.builder.Build()
	if err != nil {
		s.c.log.Warn().Err(err).Msg("invalid selection")
		return nil, err
	}
	pred, err := query.Compile(q, s.c.cmps)
	if err != nil {
		s.c.log.Warn().Err(err).Str("query", q.String()).Msg("selection did not compile")
		return nil, err
	}
	return pred, nil
}

// Execute returns a collection of the matching records. The source is
// left untouched.
func (s *Selection) Execute() (*Collection, error) {
	start := time.Now()
	pred, err := s.Predicate()
	if err != nil {
		s.c.observe("execute", start, err)
		return nil, err
	}
	out := s.c.Filter(pred)
	s.c.observe("execute", start, nil)
	return out, nil
}

// Run executes a query built elsewhere, such as one parsed from arguments
func (c *Collection) Run(q query.Query) (*Collection, error) {
	start := time.Now()
	pred, err := query.Compile(q, c.cmps)
	if err != nil {
		c.log.Warn().Err(err).Str("query", q.String()).Msg("query did not compile")
		c.observe("execute", start, err)
		return nil, err
	}
	out := c.Filter(pred)
	c.observe("execute", start, nil)
	return out, nil
}

// Filter returns a collection of the records accepted by pred
func (c *Collection) Filter(pred query.Predicate) *Collection {
	if pred == nil {
		return c.breed(c.records)
	}
	return c.breed(query.Select(query.Match(pred, c.records), c.records))
}

// Map returns a collection of fn applied to every record. Results that
// are not structured are dropped.
func (c *Collection) Map(fn func(rec any) any) *Collection {
	out := make([]any, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, fn(rec))
	}
	return c.breed(out)
}

// Each calls fn with every record and its position until fn returns false
func (c *Collection) Each(fn func(i int, rec any) bool) {
	for i, rec := range c.records {
		if !fn(i, rec) {
			return
		}
	}
}

// Exists reports whether a record deeply equal to rec is stored
func (c *Collection) Exists(rec any) bool {
	return c.indexOf(rec) >= 0
}

func (c *Collection) indexOf(rec any) int {
	for i, r := range c.records {
		if record.Equal(r, rec) {
			return i
		}
	}
	return -1
}

// Distinct returns a collection keeping the first of every set of deeply
// equal records
func (c *Collection) Distinct() *Collection {
	var out []any
	for _, rec := range c.records {
		dup := false
		for _, kept := range out {
			if record.Equal(kept, rec) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, rec)
		}
	}
	return c.breed(out)
}

// Limit returns the first n records, or the last -n when n is negative.
// Zero returns every record.
func (c *Collection) Limit(n int) *Collection {
	switch {
	case n == 0 || n >= len(c.records) || -n >= len(c.records):
		return c.breed(c.records)
	case n > 0:
		return c.breed(c.records[:n])
	default:
		return c.breed(c.records[len(c.records)+n:])
	}
}
