// Package selection computes the highlight set for a selected person.
//
// Selecting a node highlights its inbound path: every edge that leads into
// it, and recursively into its parents, together with the nodes on those
// edges. In a family tree this is the selected person plus all recorded
// ancestors.
package selection

import (
	"slices"

	"github.com/matzehuels/familytree/pkg/layout"
)

// Path is the set of highlighted nodes and edges. Nodes and Edges are
// sorted.
type Path struct {
	Selected string   `json:"selected"`
	Nodes    []string `json:"nodes"`
	Edges    []string `json:"edges"`
}

// Ancestors walks edges backwards from id through every generation. The
// result always contains id itself; an id with no inbound edges yields a
// path with no edges. Cycles in malformed data terminate.
func Ancestors(edges []layout.Edge, id string) Path {
	return AncestorsWithin(edges, id, 0)
}

// AncestorsWithin is Ancestors limited to depth generations: 1 selects the
// parents only. A depth of 0 or less is unlimited.
func AncestorsWithin(edges []layout.Edge, id string, depth int) Path {
	inbound := make(map[string][]layout.Edge)
	for _, e := range edges {
		inbound[e.Target] = append(inbound[e.Target], e)
	}

	seenNodes := map[string]bool{id: true}
	seenEdges := make(map[string]bool)
	frontier := []string{id}
	for gen := 0; len(frontier) > 0 && (depth <= 0 || gen < depth); gen++ {
		var next []string
		for _, cur := range frontier {
			for _, e := range inbound[cur] {
				seenEdges[e.ID] = true
				if !seenNodes[e.Source] {
					seenNodes[e.Source] = true
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
	}

	return Path{
		Selected: id,
		Nodes:    sortedKeys(seenNodes),
		Edges:    sortedKeys(seenEdges),
	}
}

// HasNode reports whether id is on the path.
func (p Path) HasNode(id string) bool {
	_, ok := slices.BinarySearch(p.Nodes, id)
	return ok
}

// HasEdge reports whether the edge id is on the path.
func (p Path) HasEdge(id string) bool {
	_, ok := slices.BinarySearch(p.Edges, id)
	return ok
}

// Empty reports whether nothing is selected.
func (p Path) Empty() bool {
	return len(p.Nodes) == 0
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
