package layout

import (
	"github.com/matzehuels/familytree/pkg/tree"
)

// Position is a node's coordinate triple as consumed by renderers.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Layout is the derived view of one snapshot.
// It is immutable after Derive returns and safe for concurrent readers.
type Layout struct {
	Revision string `json:"revision,omitempty"`
	MaxLevel int    `json:"max_level"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`

	opts  Options
	index map[string]int
}

// Derive computes nodes, edges and the max level for s.
// Zero-valued options fall back to the defaults.
func Derive(s *tree.Snapshot, opts Options) *Layout {
	opts.SetDefaults()
	nodes := DeriveNodes(s)

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, ok := index[n.ID]; !ok {
			index[n.ID] = i
		}
	}

	return &Layout{
		Revision: s.Revision(),
		MaxLevel: MaxLevel(nodes),
		Nodes:    nodes,
		Edges:    DeriveEdges(s),
		opts:     opts,
		index:    index,
	}
}

// Options returns the options the layout was derived with.
func (l *Layout) Options() Options { return l.opts }

// Node returns the node with the given ID. A nil layout has no nodes.
func (l *Layout) Node(id string) (Node, bool) {
	if l == nil {
		return Node{}, false
	}
	i, ok := l.index[id]
	if !ok {
		return Node{}, false
	}
	return l.Nodes[i], true
}

// Position returns the coordinates of the node with the given ID.
func (l *Layout) Position(id string) (Position, bool) {
	n, ok := l.Node(id)
	if !ok {
		return Position{}, false
	}
	return l.position(n), true
}

// PositionFunc adapts Position for collaborators that expect a plain
// callback. Unknown IDs map to the origin.
func (l *Layout) PositionFunc() func(id string) Position {
	return func(id string) Position {
		p, _ := l.Position(id)
		return p
	}
}

// Positions returns the coordinates of every node keyed by ID.
func (l *Layout) Positions() map[string]Position {
	out := make(map[string]Position, len(l.index))
	for id, i := range l.index {
		out[id] = l.position(l.Nodes[i])
	}
	return out
}

// Bounds returns the extent of all node positions.
func (l *Layout) Bounds() (width, height float64) {
	for _, n := range l.Nodes {
		p := l.position(n)
		width = max(width, p.X)
		height = max(height, p.Y)
	}
	return width, height
}

func (l *Layout) position(n Node) Position {
	return Position{
		X: float64(n.ColumnIndex) * l.opts.ColumnWidth,
		Y: float64(l.MaxLevel-n.Level) * l.opts.RowHeight,
		Z: l.opts.Z,
	}
}
