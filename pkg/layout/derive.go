package layout

import (
	"github.com/matzehuels/familytree/pkg/tree"
)

// Node is a tree record tagged with its column within its level.
type Node struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	PersonID    int            `json:"person_id"`
	Name        string         `json:"name"`
	Father      tree.ParentRef `json:"father,omitempty"`
	Mother      tree.ParentRef `json:"mother,omitempty"`
	Level       int            `json:"level"`
	ColumnIndex int            `json:"column_index"`
}

// Edge connects a parent (Source) to a child (Target).
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// EdgeID returns the edge identifier "<source>-><target>".
func EdgeID(source, target string) string {
	return source + "->" + target
}

// DeriveNodes assigns column indexes in a single pass over the snapshot.
// The result has one node per record, in record order. A nil snapshot
// yields an empty slice.
func DeriveNodes(s *tree.Snapshot) []Node {
	nodes := make([]Node, 0, s.Len())
	columns := make(map[int]int)
	for _, p := range s.All() {
		col := columns[p.Level]
		columns[p.Level] = col + 1
		nodes = append(nodes, Node{
			ID:          p.Key(),
			Label:       p.Name,
			PersonID:    p.ID,
			Name:        p.Name,
			Father:      p.Father,
			Mother:      p.Mother,
			Level:       p.Level,
			ColumnIndex: col,
		})
	}
	return nodes
}

// DeriveEdges emits one edge per present parent reference, father before
// mother, in record order. References are not resolved: an edge to an
// unknown parent is still returned. A nil snapshot yields an empty slice.
func DeriveEdges(s *tree.Snapshot) []Edge {
	edges := make([]Edge, 0, s.Len())
	for _, p := range s.All() {
		child := p.Key()
		for _, ref := range p.Parents() {
			edges = append(edges, Edge{
				ID:     EdgeID(ref.String(), child),
				Source: ref.String(),
				Target: child,
			})
		}
	}
	return edges
}

// MaxLevel returns the largest level among nodes, or 0 if there are none.
func MaxLevel(nodes []Node) int {
	if len(nodes) == 0 {
		return 0
	}
	m := nodes[0].Level
	for _, n := range nodes[1:] {
		m = max(m, n.Level)
	}
	return m
}
