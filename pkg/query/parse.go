// ABOUTME: Textual forms of joins and conditions for command lines and requests
// ABOUTME: Operands are JSON literals; anything that is not JSON is a string

package query

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/nainya/ndstore/pkg/errs"
)

// BreakToken separates condition groups in argument lists
const BreakToken = "break"

// ParseJoin parses "and", "or" or "not" in any case
func ParseJoin(s string) (Join, error) {
	switch strings.ToLower(s) {
	case "and", "&&":
		return And, nil
	case "or", "||":
		return Or, nil
	case "not", "!":
		return Not, nil
	}
	return And, errs.E(errs.MalformedQuery, "ParseJoin", "unknown join %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (j Join) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(j.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; empty text is And
func (j *Join) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*j = And
		return nil
	}
	parsed, err := ParseJoin(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// ParseValue decodes s as a JSON literal, falling back to the raw string
func ParseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// ParseArgs builds a query from tokens of the form
//
//	dim op [value] {[break] join dim op [value]}
//
// The E operator takes no value.
func ParseArgs(tokens []string) (Query, error) {
	var b *Builder
	join := And
	for i := 0; i < len(tokens); {
		if b != nil {
			if strings.EqualFold(tokens[i], BreakToken) {
				b.Break()
				i++
				if i >= len(tokens) {
					break
				}
			}
			j, err := ParseJoin(tokens[i])
			if err != nil {
				return Query{}, err
			}
			join = j
			i++
		}
		if i+1 >= len(tokens) {
			return Query{}, errs.E(errs.MalformedQuery, "ParseArgs", "incomplete condition at token %d", i)
		}
		dim, op := tokens[i], tokens[i+1]
		i += 2
		var value any
		if op != OpExists {
			if i >= len(tokens) {
				return Query{}, errs.E(errs.MalformedQuery, "ParseArgs", "operator %q needs a value", op)
			}
			value = ParseValue(tokens[i])
			i++
		}
		if b == nil {
			b = NewBuilder(dim, op, value)
			continue
		}
		switch join {
		case Or:
			b.Or(dim, op, value)
		case Not:
			b.Not(dim, op, value)
		default:
			b.And(dim, op, value)
		}
	}
	if b == nil {
		return Query{}, errs.E(errs.MalformedQuery, "ParseArgs", "no conditions")
	}
	return b.Build()
}
