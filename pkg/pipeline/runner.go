package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs layout and render for snap.
func (r *Runner) Execute(ctx context.Context, snap *tree.Snapshot, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{SnapshotHash: snap.Hash()}

	layoutStart := time.Now()
	l, err := r.Layout(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(l.Nodes)
	result.Stats.EdgeCount = len(l.Edges)

	r.Logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"edges", len(l.Edges),
		"max_level", l.MaxLevel,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, hit, err := r.renderLayout(ctx, snap, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout derives the layout of snap. A nil snapshot yields an empty layout.
func (r *Runner) Layout(ctx context.Context, snap *tree.Snapshot, opts Options) (*layout.Layout, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, snap.Revision(), snap.Len())
	start := time.Now()

	l := layout.Derive(snap, opts.Layout)

	hooks.OnLayoutComplete(ctx, l.Revision, len(l.Nodes), len(l.Edges), time.Since(start))
	return l, nil
}

// Render derives the layout of snap and renders it, using cached artifacts
// when every requested format is cached. The returned flag reports a cache
// hit. Artifacts of a nil snapshot are never cached.
func (r *Runner) Render(ctx context.Context, snap *tree.Snapshot, opts Options) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	l, err := r.Layout(ctx, snap, opts)
	if err != nil {
		return nil, false, err
	}
	return r.renderLayout(ctx, snap, l, opts)
}

func (r *Runner) renderLayout(ctx context.Context, snap *tree.Snapshot, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, hit, err := r.renderCached(ctx, snap, l, opts)

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) renderCached(ctx context.Context, snap *tree.Snapshot, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	cacheable := snap != nil
	cacheHooks := observability.Cache()

	// Try to get all formats from cache
	if cacheable && !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(snap.Hash(), opts.ArtifactKeyOpts(format, snap.Revision()))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				cacheHooks.OnCacheMiss(ctx, "artifact")
				break
			}
			cacheHooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := RenderFromLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		for format, data := range rendered {
			key := r.Keyer.ArtifactKey(snap.Hash(), opts.ArtifactKeyOpts(format, snap.Revision()))
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				r.Logger.Warn("cache write failed", "format", format, "err", err)
				continue
			}
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
