// Package nodelink renders family tree layouts as node-link diagrams.
//
// # Overview
//
// Each person becomes a rounded box and each parent reference an arrow from
// parent to child. Unlike a typical Graphviz diagram, node placement is not
// computed by Graphviz: every node is pinned at the coordinates the layout
// package derived (column times column width, generations stacked by
// level), and the neato engine only routes the edges.
//
// # Usage
//
//	l := layout.Derive(snapshot, layout.Options{})
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Highlight: a [selection.Path] whose nodes and edges are emphasized
//   - Detailed: node labels include the person id and level
//
// # Coordinates
//
// Layout units map to points (inputscale=72). Layout y grows downward while
// Graphviz y grows upward, so positions are emitted as pos="x,-y!".
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
