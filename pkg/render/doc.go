// Package render holds the rendering collaborators that turn a derived
// family tree layout into pictures.
//
// Renderers consume only what the layout package produces: nodes, edges
// and a position for each node id. They never reposition nodes.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage emits Graphviz DOT with every node pinned at
// its layout position and renders it to SVG in-process:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/familytree/pkg/render/nodelink
package render
