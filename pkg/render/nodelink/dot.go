package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/selection"
)

// Highlight colors.
const (
	highlightFill    = "#fde68a"
	selectedFill     = "#f59e0b"
	highlightEdge    = "#d97706"
	defaultEdgeColor = "#6b7280"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Highlight marks a selected ancestor path. The zero Path highlights
	// nothing.
	Highlight selection.Path

	// Detailed adds the person id and level under the name.
	Detailed bool
}

// ToDOT converts a layout to Graphviz DOT with pinned node positions.
// Edges whose endpoints are not both nodes of the layout are skipped, so
// unresolved parent references are not drawn. A nil layout yields an
// empty graph.
func ToDOT(l *layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.1,0.05\"];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, arrowsize=0.6];\n", defaultEdgeColor)
	buf.WriteString("\n")

	if l == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	drawn := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		if drawn[n.ID] {
			continue
		}
		drawn[n.ID] = true
		p, _ := l.Position(n.ID)
		attrs := fmtAttrs(n, p, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if !drawn[e.Source] || !drawn[e.Target] {
			continue
		}
		attrs := []string{fmt.Sprintf("id=%q", e.ID)}
		if opts.Highlight.HasEdge(e.ID) {
			attrs = append(attrs, fmt.Sprintf("color=%q", highlightEdge), "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n layout.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\nid: %s\nlevel: %d", n.Label, n.ID, n.Level)
}

func fmtAttrs(n layout.Node, p layout.Position, opts Options) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(p.X), fmtFloat(-p.Y)),
	}
	switch {
	case opts.Highlight.Selected == n.ID:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", selectedFill), "penwidth=2")
	case opts.Highlight.HasNode(n.ID):
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", highlightFill))
	}
	return attrs
}

func fmtFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine, which
// keeps pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose width and
// height match the viewBox, so the diagram scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
