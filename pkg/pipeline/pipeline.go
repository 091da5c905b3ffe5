// Package pipeline provides the layout → render pipeline for family trees.
//
// This package implements the steps shared by the CLI and the HTTP server:
// derive a layout from a snapshot, then render it in one or more formats,
// with rendered artifacts cached by snapshot content and options.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: derive nodes, edges and positions ([layout.Derive])
//  2. Render: produce artifacts (JSON layout document, Graphviz DOT, SVG)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, loader.Snapshot(), pipeline.Options{
//	    Formats: []string{"svg", "json"},
//	    Select:  "3",
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"strings"
	"time"

	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Layout layout.Options `json:"layout"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Select   string   `json:"select,omitempty"`   // node id whose ancestors are highlighted
	Detailed bool     `json:"detailed,omitempty"` // include id and level in labels
	Refresh  bool     `json:"refresh,omitempty"`  // bypass cached artifacts
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the derived layout.
	Layout *layout.Layout

	// SnapshotHash is the content hash of the rendered snapshot.
	SnapshotHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults applies default layout spacing and the default format.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Select != "" {
		if err := errors.ValidateNodeID(o.Select); err != nil {
			return err
		}
	}
	return nil
}

// LayoutKeyOpts returns cache key options for layout derivation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ColumnWidth: o.Layout.ColumnWidth,
		RowHeight:   o.Layout.RowHeight,
		Z:           o.Layout.Z,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// The json artifact carries the snapshot revision, so its key includes it;
// DOT and SVG depend on content only and are shared across loads.
func (o *Options) ArtifactKeyOpts(format, revision string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:   format,
		Select:   o.Select,
		Detailed: o.Detailed,
		Layout:   o.LayoutKeyOpts(),
	}
	if format == FormatJSON {
		opts.Revision = revision
	}
	return opts
}
