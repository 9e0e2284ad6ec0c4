package cli

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nainya/ndstore/pkg/rowstream"
)

// ImportOptions holds flags for the import command
type ImportOptions struct {
	ID        string
	Separator string
	Raw       bool
	SkipEmpty bool
	Pretty    bool
}

// NewImportCommand creates the import command
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append CSV rows to a stored collection",
		Long: `Read a CSV file whose first row names the columns, append one record
per row to the collection stored under --id and save it back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "storage id of the collection (required)")
	cmd.Flags().StringVar(&opts.Separator, "sep", ",", "field separator")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "keep every cell as a string")
	cmd.Flags().BoolVar(&opts.SkipEmpty, "skip-empty", false, "omit empty cells")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "store indented JSON")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *ImportOptions, path string) error {
	sep, size := utf8.DecodeRuneInString(opts.Separator)
	if size == 0 || size != len(opts.Separator) {
		return fmt.Errorf("separator must be a single character, got %q", opts.Separator)
	}

	ctx := cmd.Context()
	e, err := setup(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.open(ctx, opts.ID, false, nil)
	if err != nil {
		return err
	}
	before := c.Len()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	start := time.Now()
	err = c.ImportStream(ctx, &rowstream.CSV{
		R:          f,
		Comma:      sep,
		InferTypes: !opts.Raw,
		SkipEmpty:  opts.SkipEmpty,
	})
	e.log.LogOperation("import", time.Since(start), c.Len()-before, err)
	if err != nil {
		return err
	}
	if err := c.Save(ctx, opts.ID, !opts.Pretty); err != nil {
		return err
	}

	return newFormatter(cmd, rootOpts).result(map[string]any{
		"id":       opts.ID,
		"imported": c.Len() - before,
		"total":    c.Len(),
	}, "imported %d records into %s (%d total)", c.Len()-before, opts.ID, c.Len())
}
