package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nainya/ndstore/pkg/collection"
)

// formatter writes JSON or text command output
type formatter struct {
	format string
	w      io.Writer
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *formatter {
	return &formatter{format: opts.Format, w: cmd.OutOrStdout()}
}

// result writes v as JSON, or the formatted message in text mode
func (f *formatter) result(v any, text string, args ...any) error {
	if f.format == "json" {
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(f.w, text+"\n", args...)
	return err
}

// records writes a collection as a JSON array, or one compact record per
// line in text mode
func (f *formatter) records(c *collection.Collection) error {
	if f.format == "json" {
		text, err := c.Stringify(false)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.w, text)
		return err
	}

	var err error
	c.Each(func(_ int, rec any) bool {
		var line []byte
		if line, err = json.Marshal(rec); err != nil {
			return false
		}
		_, err = fmt.Fprintln(f.w, string(line))
		return err == nil
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.w, "(%d records)\n", c.Len())
	return err
}
