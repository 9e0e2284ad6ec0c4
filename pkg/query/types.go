// ABOUTME: Query types: conditions, join kinds and condition groups
// ABOUTME: Builder provides a fluent interface that records the first error

package query

import (
	"fmt"
	"strings"

	"github.com/nainya/ndstore/pkg/errs"
)

// Join defines how a condition combines with the ones before it
type Join uint8

const (
	And Join = iota
	Or
	Not
)

func (j Join) String() string {
	switch j {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	}
	return fmt.Sprintf("join(%d)", uint8(j))
}

// Condition is a single (dimension, operator, operand) test
type Condition struct {
	Dimension string
	Operator  string
	Value     any
	Join      Join
}

func (c Condition) String() string {
	if c.Operator == OpExists {
		return fmt.Sprintf("%s %s %s", c.Join, c.Dimension, c.Operator)
	}
	return fmt.Sprintf("%s %s %s %v", c.Join, c.Dimension, c.Operator, c.Value)
}

// Group is an ordered list of conditions compiled together
type Group []Condition

// Query is an ordered list of groups. Groups combine left to right using
// the join of each group's first condition.
type Query struct {
	Groups []Group
}

func (q Query) String() string {
	parts := make([]string, 0, len(q.Groups))
	for _, g := range q.Groups {
		conds := make([]string, len(g))
		for i, c := range g {
			conds[i] = c.String()
		}
		parts = append(parts, "("+strings.Join(conds, ", ")+")")
	}
	return strings.Join(parts, " ")
}

// Len returns the total number of conditions
func (q Query) Len() int {
	n := 0
	for _, g := range q.Groups {
		n += len(g)
	}
	return n
}

// Builder provides fluent interface for building queries
type Builder struct {
	query Query
	err   error
}

// NewBuilder creates a new builder whose first condition is dim op value
func NewBuilder(dim, op string, value any) *Builder {
	b := &Builder{query: Query{Groups: []Group{nil}}}
	return b.add(dim, op, value, And)
}

// And adds a condition that must hold together with the previous ones
func (b *Builder) And(dim, op string, value any) *Builder {
	return b.add(dim, op, value, And)
}

// Or adds an alternative condition
func (b *Builder) Or(dim, op string, value any) *Builder {
	return b.add(dim, op, value, Or)
}

// Not adds a condition that must not hold
func (b *Builder) Not(dim, op string, value any) *Builder {
	return b.add(dim, op, value, Not)
}

// Break closes the current group; the next condition opens a new one
func (b *Builder) Break() *Builder {
	if len(b.query.Groups[len(b.query.Groups)-1]) > 0 {
		b.query.Groups = append(b.query.Groups, nil)
	}
	return b
}

func (b *Builder) add(dim, op string, value any, join Join) *Builder {
	c := Condition{Dimension: dim, Operator: op, Value: value, Join: join}
	if b.err == nil {
		b.err = Validate(c)
	}
	last := len(b.query.Groups) - 1
	b.query.Groups[last] = append(b.query.Groups[last], c)
	return b
}

// Err returns the first validation error recorded by the builder
func (b *Builder) Err() error {
	return b.err
}

// Build returns the constructed query or the first recorded error
func (b *Builder) Build() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	q := Query{Groups: make([]Group, 0, len(b.query.Groups))}
	for _, g := range b.query.Groups {
		if len(g) > 0 {
			q.Groups = append(q.Groups, g)
		}
	}
	if len(q.Groups) == 0 {
		return Query{}, errs.E(errs.MalformedQuery, "Build", "query has no conditions")
	}
	return q, nil
}
