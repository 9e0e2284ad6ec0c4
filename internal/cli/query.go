package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/ndstore/pkg/query"
)

// QueryOptions holds flags for the query command
type QueryOptions struct {
	ID     string
	SortBy []string
	Limit  int
}

// NewQueryCommand creates the query command
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <dim> <op> [value] [and|or|not <dim> <op> [value]]...",
		Short: "Select records from a stored collection",
		Long: `Select records matching a chain of conditions. Conditions are joined
with and, or and not; the word break starts a new group. Values are
parsed as JSON literals and fall back to plain strings.

  ndstore query --id art painter == Monet and year '<' 1900`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "storage id of the collection (required)")
	cmd.Flags().StringSliceVar(&opts.SortBy, "sort-by", nil, "dimensions to sort the result by")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "keep the first n records, or the last -n")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runQuery(cmd *cobra.Command, rootOpts *RootOptions, opts *QueryOptions, args []string) error {
	q, err := query.ParseArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := setup(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.open(ctx, opts.ID, true, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := c.Run(q)
	if err != nil {
		return err
	}
	if len(opts.SortBy) > 0 {
		out.SortBy(opts.SortBy...)
	}
	if opts.Limit != 0 {
		out = out.Limit(opts.Limit)
	}
	e.log.LogOperation("query", time.Since(start), out.Len(), nil)

	return newFormatter(cmd, rootOpts).records(out)
}
