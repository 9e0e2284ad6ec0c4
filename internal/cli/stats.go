package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nainya/ndstore/pkg/record"
)

// NewStatsCommand creates the stats command
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "stats <dim>",
		Short: "Aggregate a numeric dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts, id, args[0])
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "storage id of the collection (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

type statLine struct {
	name  string
	value float64
	ok    bool
}

func runStats(cmd *cobra.Command, rootOpts *RootOptions, id, dim string) error {
	ctx := cmd.Context()
	e, err := setup(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.open(ctx, id, true, nil)
	if err != nil {
		return err
	}

	lines := []statLine{{name: "count", value: float64(c.Count(dim)), ok: true}}
	for _, agg := range []struct {
		name string
		fn   func(string) (float64, bool)
	}{
		{"sum", c.Sum},
		{"mean", c.Mean},
		{"stddev", c.Stddev},
		{"min", c.Min},
		{"max", c.Max},
	} {
		v, ok := agg.fn(dim)
		lines = append(lines, statLine{name: agg.name, value: v, ok: ok})
	}

	out := map[string]any{"dimension": dim}
	var text strings.Builder
	for i, l := range lines {
		if i > 0 {
			text.WriteByte('\n')
		}
		if l.ok {
			out[l.name] = l.value
			fmt.Fprintf(&text, "%-7s %g", l.name, l.value)
		} else {
			out[l.name] = nil
			fmt.Fprintf(&text, "%-7s -", l.name)
		}
	}
	return newFormatter(cmd, rootOpts).result(out, "%s", text.String())
}

// NewGroupsCommand creates the groups command
func NewGroupsCommand(rootOpts *RootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "groups <dim>",
		Short: "Count records per distinct value of a dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, rootOpts, id, args[0])
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "storage id of the collection (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

type groupCount struct {
	Value any `json:"value"`
	Count int `json:"count"`
}

func runGroups(cmd *cobra.Command, rootOpts *RootOptions, id, dim string) error {
	ctx := cmd.Context()
	e, err := setup(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.open(ctx, id, true, nil)
	if err != nil {
		return err
	}

	var (
		groups []groupCount
		text   strings.Builder
	)
	for i, g := range c.GroupBy(dim) {
		first, _ := g.First()
		value, _ := record.Get(first, dim)
		groups = append(groups, groupCount{Value: value, Count: g.Len()})
		if i > 0 {
			text.WriteByte('\n')
		}
		fmt.Fprintf(&text, "%v\t%d", value, g.Len())
	}
	return newFormatter(cmd, rootOpts).result(groups, "%s", text.String())
}
