package layout_test

import (
	"fmt"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/tree"
)

func ExampleDerive() {
	s := tree.NewSnapshot(&tree.Document{Tree: []tree.Person{
		{ID: 1, Name: "A", Level: 1},
		{ID: 2, Name: "B", Level: 1},
		{ID: 3, Name: "C", Father: "1", Mother: "2", Level: 0},
	}}, "example")

	l := layout.Derive(s, layout.Options{})
	for _, n := range l.Nodes {
		p, _ := l.Position(n.ID)
		fmt.Printf("%s col=%d x=%g y=%g\n", n.Label, n.ColumnIndex, p.X, p.Y)
	}
	for _, e := range l.Edges {
		fmt.Println(e.ID)
	}
	// Output:
	// A col=0 x=0 y=0
	// B col=1 x=100 y=0
	// C col=0 x=0 y=100
	// 1->3
	// 2->3
}
