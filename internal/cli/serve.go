package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/internal/server"
	"github.com/matzehuels/familytree/pkg/loader"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand creates the serve command that exposes the layout over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve the tree layout over HTTP",
		Long: `Start an HTTP server and load the family tree exactly once in the
background. Until the load completes the layout is empty; a failed load is
logged and never retried.

Endpoints:
  GET /health                     load state, revision and load time
  GET /tree.json                  the loaded tree document
  GET /api/layout                 nodes, edges and positions
  GET /api/nodes/{id}/position    one node's position
  GET /api/nodes/{id}/selection   highlighted ancestors (?depth=1 for one hop)
  GET /api/render.svg             Graphviz rendering (?select=id&detailed=1)
  GET /api/render.dot             Graphviz source`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, args []string, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	spec, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	src, err := openSource(ctx, spec, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	runner, err := c.newRunner(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	l := loader.New(src, loader.Options{
		Logger:  c.Logger,
		Timeout: time.Duration(cfg.Source.FetchTimeout),
	})
	srv := server.New(l, runner, server.Options{
		Layout:          cfg.Layout,
		Logger:          c.Logger,
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeout),
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout),
	})

	l.Start(ctx)
	c.Logger.Info("serving", "addr", addr, "source", src.String())
	return srv.ListenAndServe(ctx, addr)
}
