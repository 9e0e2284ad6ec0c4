// ABOUTME: Row-stream sources emitting one flat record per row
// ABOUTME: CSV reads header-derived or explicit column names

package rowstream

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Source emits rows as flat records until exhausted or emit fails
type Source interface {
	Stream(ctx context.Context, emit func(row map[string]any) error) error
}

// CSV reads comma-separated rows from R
type CSV struct {
	R io.Reader
	// Columns names the fields; when empty the first row is the header
	Columns []string
	// Comma overrides the field separator
	Comma rune
	// InferTypes converts numeric and boolean cells
	InferTypes bool
	// SkipEmpty drops empty cells instead of storing ""
	SkipEmpty bool
}

// Stream emits one record per row. A row longer than the header gets
// positional names for the extra cells.
func (c *CSV) Stream(ctx context.Context, emit func(row map[string]any) error) error {
	if c.R == nil {
		return errors.New("csv source: reader is required")
	}

	r := csv.NewReader(c.R)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if c.Comma != 0 {
		r.Comma = c.Comma
	}

	columns := c.Columns
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv line %d: %w", line+1, err)
		}
		line++

		if len(columns) == 0 {
			columns = make([]string, len(cells))
			for i, h := range cells {
				columns[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(map[string]any, len(cells))
		for i, cell := range cells {
			if c.SkipEmpty && cell == "" {
				continue
			}
			name := "col" + strconv.Itoa(i)
			if i < len(columns) && columns[i] != "" {
				name = columns[i]
			}
			row[name] = c.value(cell)
		}
		if err := emit(row); err != nil {
			return err
		}
	}
}

func (c *CSV) value(cell string) any {
	if !c.InferTypes {
		return cell
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(cell); err == nil {
		return b
	}
	return cell
}
