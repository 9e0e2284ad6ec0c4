// ABOUTME: JSON text codec for record sequences
// ABOUTME: Records are decycled before encoding and retrocycled after decoding

package codec

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/nainya/ndstore/pkg/cycle"
)

// Indent is the indentation used when output is not compressed
const Indent = "    "

// Encode renders records as a JSON array. Each record is decycled on its
// own. compress selects compact output instead of indented output.
func Encode(records []any, compress bool) (string, error) {
	items := make([]any, len(records))
	for i, rec := range records {
		items[i] = cycle.Decycle(rec)
	}

	var (
		out []byte
		err error
	)
	if compress {
		out, err = json.Marshal(items)
	} else {
		out, err = json.MarshalIndent(items, "", Indent)
	}
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(out), nil
}

// Decode parses a JSON array of records and retrocycles each one. Empty
// text decodes to no records.
func Decode(text string) ([]any, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, nil
	}

	var items []any
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i, item := range items {
		items[i] = cycle.Retrocycle(item)
	}
	return items, nil
}
