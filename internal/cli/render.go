package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (single format) or base path (multiple)
	formats  []string
	selectID string // node whose ancestors are highlighted
	detailed bool   // include id and level in labels
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}
	popts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render a family tree to SVG, DOT or layout JSON",
		Long: `Render a family tree with every person pinned at their layout position.

Formats are svg (Graphviz), dot (Graphviz source) and json (the layout
document). Use --select to highlight a person and all their recorded
ancestors.

Rendered artifacts are cached by tree content and options.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := pipeline.ParseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats
			return c.runRender(cmd.Context(), args, &opts, popts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", pipeline.FormatSVG, "output format(s): svg, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.selectID, "select", "", "highlight this person and their ancestors")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show person id and level in labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().Float64Var(&popts.Layout.ColumnWidth, "column-width", 0, "horizontal spacing between columns (default 100)")
	cmd.Flags().Float64Var(&popts.Layout.RowHeight, "row-height", 0, "vertical spacing between levels (default 100)")

	return cmd
}

// runRender loads the tree, renders all formats and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, args []string, opts *renderOpts, popts pipeline.Options) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	spec, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}
	mergeLayoutOptions(&popts.Layout, cfg.Layout)
	popts.Formats = opts.formats
	popts.Select = opts.selectID
	popts.Detailed = opts.detailed
	popts.Refresh = opts.refresh
	if err := popts.Validate(); err != nil {
		return err
	}

	snap, err := c.loadSnapshot(ctx, spec, cfg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	result, err := runner.Execute(ctx, snap, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(opts.output, outputBase(spec), popts.Formats)
	printSuccess("Render complete")
	for _, format := range popts.Formats {
		path := paths[format]
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Layout.MaxLevel, result.CacheInfo.RenderHit)
	if n := len(snap.Dangling()); n > 0 {
		printWarning("%d parent references do not match any person", n)
	}
	return nil
}

// outputPaths maps each format to a file. A single format with an explicit
// output uses it verbatim; otherwise output (or base) gets the format's
// extension.
func outputPaths(output, base string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	if output != "" {
		base = output[:len(output)-len(filepath.Ext(output))]
	}
	for _, f := range formats {
		suffix := "." + f
		if f == pipeline.FormatJSON {
			suffix = ".layout.json"
		}
		paths[f] = base + suffix
	}
	return paths
}
