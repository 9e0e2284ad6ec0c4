// ABOUTME: Path grammar for reference markers: $ followed by [N] or ["name"] accessors
// ABOUTME: Paths are parsed into tokens and walked against a root value, never evaluated

package cycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Root is the symbol every path starts with
const Root = "$"

// Token is one accessor in a path
type Token struct {
	Key     string
	Index   int
	IsIndex bool
}

func (t Token) String() string {
	if t.IsIndex {
		return "[" + strconv.Itoa(t.Index) + "]"
	}
	return fieldAccessor(t.Key)
}

func fieldAccessor(key string) string {
	quoted, err := json.Marshal(key)
	if err != nil {
		quoted = []byte(strconv.Quote(key))
	}
	return "[" + string(quoted) + "]"
}

func indexAccessor(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// FormatPath renders tokens back into path text
func FormatPath(tokens []Token) string {
	var b strings.Builder
	b.WriteString(Root)
	for _, t := range tokens {
		b.WriteString(t.String())
	}
	return b.String()
}

// ParsePath parses path text into tokens. Anything outside the grammar is
// an error.
func ParsePath(s string) ([]Token, error) {
	if !strings.HasPrefix(s, Root) {
		return nil, fmt.Errorf("path %q does not start with %s", s, Root)
	}

	var tokens []Token
	i := len(Root)
	for i < len(s) {
		if s[i] != '[' {
			return nil, fmt.Errorf("path %q: expected [ at %d", s, i)
		}
		i++
		if i >= len(s) {
			return nil, fmt.Errorf("path %q: unexpected end", s)
		}

		switch {
		case s[i] >= '0' && s[i] <= '9':
			start := i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			n, err := strconv.Atoi(s[start:i])
			if err != nil {
				return nil, fmt.Errorf("path %q: index: %w", s, err)
			}
			tokens = append(tokens, Token{Index: n, IsIndex: true})

		case s[i] == '"':
			end, err := scanString(s, i)
			if err != nil {
				return nil, err
			}
			var key string
			if err := json.Unmarshal([]byte(s[i:end]), &key); err != nil {
				return nil, fmt.Errorf("path %q: key: %w", s, err)
			}
			tokens = append(tokens, Token{Key: key})
			i = end

		default:
			return nil, fmt.Errorf("path %q: unexpected %q at %d", s, s[i], i)
		}

		if i >= len(s) || s[i] != ']' {
			return nil, fmt.Errorf("path %q: expected ] at %d", s, i)
		}
		i++
	}
	return tokens, nil
}

// scanString returns the offset just past the closing quote of the JSON
// string starting at s[start]
func scanString(s string, start int) (int, error) {
	i := start + 1
	for i < len(s) {
		switch c := s[i]; {
		case c == '"':
			return i + 1, nil
		case c < 0x20:
			return 0, fmt.Errorf("path %q: control character at %d", s, i)
		case c == '\\':
			if i+1 >= len(s) {
				return 0, fmt.Errorf("path %q: dangling escape", s)
			}
			switch s[i+1] {
			case '\\', '"', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				if i+6 > len(s) {
					return 0, fmt.Errorf("path %q: short unicode escape", s)
				}
				i += 6
			default:
				return 0, fmt.Errorf("path %q: bad escape at %d", s, i)
			}
		default:
			i++
		}
	}
	return 0, fmt.Errorf("path %q: unterminated string", s)
}

// Resolve walks tokens from root through map[string]any and []any values
func Resolve(root any, tokens []Token) (any, bool) {
	cur := root
	for _, t := range tokens {
		switch c := cur.(type) {
		case map[string]any:
			if t.IsIndex {
				v, ok := c[strconv.Itoa(t.Index)]
				if !ok {
					return nil, false
				}
				cur = v
				continue
			}
			v, ok := c[t.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !t.IsIndex || t.Index >= len(c) {
				return nil, false
			}
			cur = c[t.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}
