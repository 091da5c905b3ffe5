package selection

import (
	"slices"
	"testing"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/tree"
)

func edgesOf(records ...tree.Person) []layout.Edge {
	return layout.DeriveEdges(tree.NewSnapshot(&tree.Document{Tree: records}, "test"))
}

func familyEdges() []layout.Edge {
	return edgesOf(
		tree.Person{ID: 1, Name: "GF", Level: 2},
		tree.Person{ID: 2, Name: "GM", Level: 2},
		tree.Person{ID: 3, Name: "F", Father: "1", Mother: "2", Level: 1},
		tree.Person{ID: 4, Name: "M", Level: 1},
		tree.Person{ID: 5, Name: "C", Father: "3", Mother: "4", Level: 0},
	)
}

func TestAncestorsWithin(t *testing.T) {
	edges := familyEdges()

	tests := []struct {
		depth     int
		wantNodes []string
		wantEdges []string
	}{
		{depth: 1, wantNodes: []string{"3", "4", "5"}, wantEdges: []string{"3->5", "4->5"}},
		{depth: 2, wantNodes: []string{"1", "2", "3", "4", "5"}, wantEdges: []string{"1->3", "2->3", "3->5", "4->5"}},
		{depth: 0, wantNodes: []string{"1", "2", "3", "4", "5"}, wantEdges: []string{"1->3", "2->3", "3->5", "4->5"}},
	}

	for _, tt := range tests {
		p := AncestorsWithin(edges, "5", tt.depth)
		if !slices.Equal(p.Nodes, tt.wantNodes) || !slices.Equal(p.Edges, tt.wantEdges) {
			t.Errorf("depth %d: path = %+v, want nodes %v edges %v", tt.depth, p, tt.wantNodes, tt.wantEdges)
		}
	}
}

func TestAncestors(t *testing.T) {
	edges := edgesOf(
		tree.Person{ID: 1, Name: "GF", Level: 2},
		tree.Person{ID: 2, Name: "GM", Level: 2},
		tree.Person{ID: 3, Name: "F", Father: "1", Mother: "2", Level: 1},
		tree.Person{ID: 4, Name: "M", Level: 1},
		tree.Person{ID: 5, Name: "C", Father: "3", Mother: "4", Level: 0},
		tree.Person{ID: 6, Name: "Sibling", Father: "3", Mother: "4", Level: 0},
	)

	tests := []struct {
		id        string
		wantNodes []string
		wantEdges []string
	}{
		{
			id:        "5",
			wantNodes: []string{"1", "2", "3", "4", "5"},
			wantEdges: []string{"1->3", "2->3", "3->5", "4->5"},
		},
		{
			id:        "3",
			wantNodes: []string{"1", "2", "3"},
			wantEdges: []string{"1->3", "2->3"},
		},
		{
			id:        "1",
			wantNodes: []string{"1"},
			wantEdges: []string{},
		},
		{
			id:        "42",
			wantNodes: []string{"42"},
			wantEdges: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p := Ancestors(edges, tt.id)
			if p.Selected != tt.id {
				t.Errorf("Selected = %q", p.Selected)
			}
			if !slices.Equal(p.Nodes, tt.wantNodes) {
				t.Errorf("Nodes = %v, want %v", p.Nodes, tt.wantNodes)
			}
			if !slices.Equal(p.Edges, tt.wantEdges) {
				t.Errorf("Edges = %v, want %v", p.Edges, tt.wantEdges)
			}
		})
	}
}

func TestAncestorsExcludesDescendants(t *testing.T) {
	edges := edgesOf(
		tree.Person{ID: 1, Name: "P", Level: 1},
		tree.Person{ID: 2, Name: "C", Father: "1", Level: 0},
	)
	p := Ancestors(edges, "1")
	if p.HasNode("2") || p.HasEdge("1->2") {
		t.Errorf("descendant highlighted: %+v", p)
	}
}

func TestAncestorsCycle(t *testing.T) {
	edges := edgesOf(
		tree.Person{ID: 1, Name: "A", Father: "2"},
		tree.Person{ID: 2, Name: "B", Father: "1"},
	)
	p := Ancestors(edges, "1")
	if !slices.Equal(p.Nodes, []string{"1", "2"}) {
		t.Errorf("Nodes = %v", p.Nodes)
	}
	if !slices.Equal(p.Edges, []string{"1->2", "2->1"}) {
		t.Errorf("Edges = %v", p.Edges)
	}
}

func TestAncestorsDangling(t *testing.T) {
	edges := edgesOf(tree.Person{ID: 1, Name: "A", Father: "99"})
	p := Ancestors(edges, "1")
	if !p.HasNode("99") || !p.HasEdge("99->1") {
		t.Errorf("dangling parent not on path: %+v", p)
	}
}

func TestPathHelpers(t *testing.T) {
	var zero Path
	if !zero.Empty() || zero.HasNode("1") || zero.HasEdge("1->2") {
		t.Error("zero path should be empty")
	}

	p := Ancestors(nil, "7")
	if p.Empty() || !p.HasNode("7") || p.HasNode("8") {
		t.Errorf("path = %+v", p)
	}
}
