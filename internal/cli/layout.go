package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// layoutCommand creates the layout command for deriving node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		opts   layout.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [source]",
		Short: "Load a family tree and print its layout as JSON",
		Long: `Load a family tree once and derive its layout.

The source is a URL, a JSON file, a mongodb:// URI or sqlite:<path>. When
omitted, the configured [source] location is used.

The output lists nodes (with their column within their generation), edges
from each parent to child, and the position of every node:

  x = column * column-width
  y = (max level - level) * row-height`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (default: stdout)")
	cmd.Flags().Float64Var(&opts.ColumnWidth, "column-width", 0, "horizontal spacing between columns (default 100)")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", 0, "vertical spacing between levels (default 100)")

	return cmd
}

// runLayout loads the tree, derives the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, args []string, opts layout.Options, output string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	spec, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}
	mergeLayoutOptions(&opts, cfg.Layout)

	snap, err := c.loadSnapshot(ctx, spec, cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	prog := newProgress(c.Logger)
	l, err := runner.Layout(ctx, snap, pipeline.Options{Layout: opts})
	if err != nil {
		return fmt.Errorf("derive layout: %w", err)
	}
	prog.done("Derived layout")

	data, err := json.MarshalIndent(pipeline.NewLayoutDocument(l), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := writeOutput(output, data); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	if output != "-" {
		printSuccess("Layout complete")
		printFile(output)
		printStats(len(l.Nodes), len(l.Edges), l.MaxLevel, false)
	}
	return nil
}

// mergeLayoutOptions fills flag values left at zero from the config.
func mergeLayoutOptions(opts *layout.Options, cfg layout.Options) {
	if opts.ColumnWidth == 0 {
		opts.ColumnWidth = cfg.ColumnWidth
	}
	if opts.RowHeight == 0 {
		opts.RowHeight = cfg.RowHeight
	}
	if opts.Z == 0 {
		opts.Z = cfg.Z
	}
}
