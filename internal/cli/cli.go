package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/internal/config"
	"github.com/matzehuels/familytree/pkg/buildinfo"
	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/loader"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/source"
	"github.com/matzehuels/familytree/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Familytree loads a family tree and lays it out by generation",
		Long:         `Familytree fetches a family tree document once, assigns every person a column within their generation, and serves or renders the resulting layout.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.DefaultFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the layered configuration.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.CacheConfig, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, cfg.Keyer(), c.Logger), nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cfg.OpenCache(ctx)
}

// resolveSource picks the source from the argument, falling back to the
// configured location.
func resolveSource(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Source.Location != "" {
		return cfg.Source.Location, nil
	}
	return "", fmt.Errorf("no source given: pass one as argument or set [source] location")
}

// openSource opens spec with the configured HTTP headers.
func openSource(ctx context.Context, spec string, cfg *config.Config) (source.Source, error) {
	src, err := source.Open(ctx, spec)
	if err != nil {
		return nil, err
	}
	return source.WithHeaders(src, cfg.Source.Headers), nil
}

// loadSnapshot opens spec and performs the single load, showing a spinner.
func (c *CLI) loadSnapshot(ctx context.Context, spec string, cfg *config.Config) (*tree.Snapshot, error) {
	src, err := openSource(ctx, spec, cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	l := loader.New(src, loader.Options{
		Logger:  c.Logger,
		Timeout: time.Duration(cfg.Source.FetchTimeout),
	})

	spinner := newSpinnerWithContext(ctx, "Loading "+src.String()+"...")
	spinner.Start()
	if err := l.Load(ctx); err != nil {
		spinner.StopWithError("Load failed")
		return nil, err
	}
	spinner.Stop()
	return l.Snapshot(), nil
}

// =============================================================================
// Output Helpers
// =============================================================================

// outputBase derives the output base path from a source string.
func outputBase(spec string) string {
	if strings.Contains(spec, "://") || strings.HasPrefix(spec, "sqlite:") {
		return "tree"
	}
	return strings.TrimSuffix(spec, filepath.Ext(spec))
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
