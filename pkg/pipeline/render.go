package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/render/nodelink"
	"github.com/matzehuels/familytree/pkg/selection"
)

// LayoutDocument is the JSON form of a layout served to collaborators:
// nodes, edges and a position per node id.
type LayoutDocument struct {
	Revision  string                     `json:"revision"`
	MaxLevel  int                        `json:"max_level"`
	Nodes     []layout.Node              `json:"nodes"`
	Edges     []layout.Edge              `json:"edges"`
	Positions map[string]layout.Position `json:"positions"`
	Selection *selection.Path            `json:"selection,omitempty"`
}

// NewLayoutDocument builds the JSON form of l. A nil layout yields an empty
// document.
func NewLayoutDocument(l *layout.Layout) LayoutDocument {
	if l == nil {
		l = layout.Derive(nil, layout.Options{})
	}
	return LayoutDocument{
		Revision:  l.Revision,
		MaxLevel:  l.MaxLevel,
		Nodes:     l.Nodes,
		Edges:     l.Edges,
		Positions: l.Positions(),
	}
}

// Highlight resolves a selection of all ancestors against l. An empty id
// selects nothing; an id that is not a node is NODE_NOT_FOUND.
func Highlight(l *layout.Layout, id string) (selection.Path, error) {
	return HighlightWithin(l, id, 0)
}

// HighlightWithin is Highlight limited to depth generations (0 = all).
func HighlightWithin(l *layout.Layout, id string, depth int) (selection.Path, error) {
	if id == "" {
		return selection.Path{}, nil
	}
	if err := errors.ValidateNodeID(id); err != nil {
		return selection.Path{}, err
	}
	if l == nil {
		return selection.Path{}, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	if _, ok := l.Node(id); !ok {
		return selection.Path{}, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	return selection.AncestorsWithin(l.Edges, id, depth), nil
}

// RenderFromLayout generates output artifacts in the requested formats.
func RenderFromLayout(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	path, err := Highlight(l, opts.Select)
	if err != nil {
		return nil, err
	}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			doc := NewLayoutDocument(l)
			if !path.Empty() {
				doc.Selection = &path
			}
			data, err = json.MarshalIndent(doc, "", "  ")
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(l, nodelink.Options{Highlight: path, Detailed: opts.Detailed})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
