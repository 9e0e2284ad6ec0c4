// ABOUTME: Fixed operator set and per-condition predicate construction
// ABOUTME: Comparison operators delegate ordering to the dimension comparator

package query

import (
	"reflect"

	"github.com/nainya/ndstore/pkg/compare"
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/record"
)

// Operators
const (
	OpExists  = "E"
	OpEq      = "=="
	OpEqAlias = "="
	OpNe      = "!="
	OpGt      = ">"
	OpGe      = ">="
	OpLt      = "<"
	OpLe      = "<="
	OpBetween = "><"
	OpOutside = "<>"
	OpIn      = "in"
	OpNotIn   = "!in"
)

type operandShape uint8

const (
	shapeNone operandShape = iota
	shapeScalar
	shapePair
	shapeSet
)

var operatorShapes = map[string]operandShape{
	OpExists:  shapeNone,
	OpEq:      shapeScalar,
	OpEqAlias: shapeScalar,
	OpNe:      shapeScalar,
	OpGt:      shapeScalar,
	OpGe:      shapeScalar,
	OpLt:      shapeScalar,
	OpLe:      shapeScalar,
	OpBetween: shapePair,
	OpOutside: shapePair,
	OpIn:      shapeSet,
	OpNotIn:   shapeSet,
}

// Operators returns the supported operator symbols
func Operators() []string {
	return []string{OpExists, OpEq, OpEqAlias, OpNe, OpGt, OpGe, OpLt, OpLe, OpBetween, OpOutside, OpIn, OpNotIn}
}

// Comparators resolves the comparator for a dimension
type Comparators interface {
	Lookup(dim string) compare.Func
}

// Validate checks the operator and operand shape of c
func Validate(c Condition) error {
	if c.Dimension == "" {
		return errs.E(errs.MalformedQuery, "Select", "empty dimension")
	}
	shape, ok := operatorShapes[c.Operator]
	if !ok {
		return errs.E(errs.InvalidOperator, "Select", "unknown operator %q", c.Operator)
	}
	if c.Join > Not {
		return errs.E(errs.MalformedQuery, "Select", "unknown join %s", c.Join)
	}

	list, isList := asList(c.Value)
	switch shape {
	case shapeScalar:
		if isList {
			return errs.E(errs.MalformedQuery, "Select", "operator %q takes a scalar operand", c.Operator)
		}
	case shapePair:
		if !isList || len(list) != 2 {
			return errs.E(errs.MalformedQuery, "Select", "operator %q takes two bounds", c.Operator)
		}
	case shapeSet:
		if !isList {
			return errs.E(errs.MalformedQuery, "Select", "operator %q takes a list operand", c.Operator)
		}
	}
	return nil
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Predicate reports whether a record matches
type Predicate func(rec any) bool

func compileCondition(c Condition, cmps Comparators) (Predicate, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	dim := c.Dimension
	var cmp compare.Func
	if cmps != nil {
		cmp = cmps.Lookup(dim)
	}
	if cmp == nil {
		cmp = compare.Default(dim)
	}

	if c.Operator == OpExists {
		return func(rec any) bool {
			return record.Has(rec, dim)
		}, nil
	}

	list, _ := asList(c.Value)
	switch c.Operator {
	case OpBetween, OpOutside:
		lo, hi := record.Nest(dim, list[0]), record.Nest(dim, list[1])
		if c.Operator == OpBetween {
			return func(rec any) bool {
				return record.Has(rec, dim) && cmp(rec, lo) > 0 && cmp(rec, hi) < 0
			}, nil
		}
		return func(rec any) bool {
			return record.Has(rec, dim) && (cmp(rec, lo) < 0 || cmp(rec, hi) > 0)
		}, nil

	case OpIn, OpNotIn:
		probes := make([]map[string]any, len(list))
		for i, v := range list {
			probes[i] = record.Nest(dim, v)
		}
		in := func(rec any) bool {
			for _, p := range probes {
				if cmp(rec, p) == 0 {
					return true
				}
			}
			return false
		}
		if c.Operator == OpIn {
			return func(rec any) bool {
				return record.Has(rec, dim) && in(rec)
			}, nil
		}
		return func(rec any) bool {
			return !record.Has(rec, dim) || !in(rec)
		}, nil
	}

	probe := record.Nest(dim, c.Value)
	var test func(int) bool
	switch c.Operator {
	case OpEq, OpEqAlias:
		test = func(r int) bool { return r == 0 }
	case OpNe:
		test = func(r int) bool { return r != 0 }
	case OpGt:
		test = func(r int) bool { return r > 0 }
	case OpGe:
		test = func(r int) bool { return r >= 0 }
	case OpLt:
		test = func(r int) bool { return r < 0 }
	case OpLe:
		test = func(r int) bool { return r <= 0 }
	}
	return func(rec any) bool {
		return record.Has(rec, dim) && test(cmp(rec, probe))
	}, nil
}
