// ABOUTME: Extraction of dimension values from the records
// ABOUTME: Missing values are omitted rather than padded

package collection

import "github.com/nainya/ndstore/pkg/record"

// FetchValues returns, per key, the values found across the records
func (c *Collection) FetchValues(keys ...string) map[string][]any {
	out := make(map[string][]any, len(keys))
	for _, rec := range c.records {
		for _, key := range keys {
			if v, ok := record.Get(rec, key); ok {
				out[key] = append(out[key], v)
			}
		}
	}
	return out
}

// FetchArray returns one row per record holding the values at keys. With no
// keys a row holds every leaf value of the record.
func (c *Collection) FetchArray(keys ...string) [][]any {
	return c.rows(keys, false)
}

// FetchKeyArray is like FetchArray with each value preceded by its key
func (c *Collection) FetchKeyArray(keys ...string) [][]any {
	return c.rows(keys, true)
}

func (c *Collection) rows(keys []string, keyed bool) [][]any {
	out := make([][]any, 0, len(c.records))
	for _, rec := range c.records {
		var row []any
		switch {
		case len(keys) == 0 && keyed:
			row = record.FlattenKeyed(rec)
		case len(keys) == 0:
			row = record.Flatten(rec)
		default:
			for _, key := range keys {
				v, ok := record.Get(rec, key)
				if !ok {
					continue
				}
				if keyed {
					row = append(row, key)
				}
				row = append(row, v)
			}
		}
		out = append(out, row)
	}
	return out
}

// FetchSubObj returns a projection of every record onto keys
func (c *Collection) FetchSubObj(keys ...string) []any {
	out := make([]any, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, record.SubObj(rec, keys))
	}
	return out
}
