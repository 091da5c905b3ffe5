package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/selection"
	"github.com/matzehuels/familytree/pkg/tree"
)

func sampleLayout(records ...tree.Person) *layout.Layout {
	if records == nil {
		records = []tree.Person{
			{ID: 1, Name: "A", Level: 1},
			{ID: 2, Name: "B", Level: 1},
			{ID: 3, Name: "C", Father: "1", Mother: "2", Level: 0},
		}
	}
	return layout.Derive(tree.NewSnapshot(&tree.Document{Tree: records}, "test"), layout.Options{})
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{})

	for _, want := range []string{
		"digraph G {",
		"inputscale=72;",
		`"1" [label="A", pos="0,0!"];`,
		`"2" [label="B", pos="100,0!"];`,
		`"3" [label="C", pos="0,-100!"];`,
		`"1" -> "3" [id="1->3"];`,
		`"2" -> "3" [id="2->3"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Index(dot, `"1" -> "3"`) > strings.Index(dot, `"2" -> "3"`) {
		t.Error("father edge should precede mother edge")
	}
}

func TestToDOTSkipsDanglingEdges(t *testing.T) {
	dot := ToDOT(sampleLayout(
		tree.Person{ID: 1, Name: "A", Father: "99", Level: 0},
	), Options{})

	if strings.Contains(dot, `"99"`) {
		t.Errorf("dangling parent drawn:\n%s", dot)
	}
	if !strings.Contains(dot, `"1" [label="A"`) {
		t.Errorf("node missing:\n%s", dot)
	}
}

func TestToDOTDuplicateIDs(t *testing.T) {
	dot := ToDOT(sampleLayout(
		tree.Person{ID: 1, Name: "First", Level: 0},
		tree.Person{ID: 1, Name: "Second", Level: 0},
	), Options{})

	if strings.Count(dot, `"1" [`) != 1 {
		t.Errorf("duplicate node emitted:\n%s", dot)
	}
	if !strings.Contains(dot, `label="First"`) {
		t.Errorf("first record should win:\n%s", dot)
	}
}

func TestToDOTHighlight(t *testing.T) {
	l := sampleLayout()
	path := selection.Ancestors(l.Edges, "3")
	dot := ToDOT(l, Options{Highlight: path})

	if !strings.Contains(dot, `"3" [label="C", pos="0,-100!", fillcolor="`+selectedFill+`"`) {
		t.Errorf("selected node not emphasized:\n%s", dot)
	}
	if !strings.Contains(dot, `"1" [label="A", pos="0,0!", fillcolor="`+highlightFill+`"]`) {
		t.Errorf("ancestor not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `[id="1->3", color="`+highlightEdge+`", penwidth=2]`) {
		t.Errorf("edge not highlighted:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{Detailed: true})
	if !strings.Contains(dot, `label="C\nid: 3\nlevel: 0"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	for _, l := range []*layout.Layout{nil, layout.Derive(nil, layout.Options{})} {
		dot := ToDOT(l, Options{})
		if strings.Contains(dot, "->") || strings.Contains(dot, "label=") {
			t.Errorf("empty layout produced elements:\n%s", dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleLayout(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Fatalf("not an SVG: %.200s", svg)
	}
	for _, name := range []string{">A<", ">B<", ">C<"} {
		if !bytes.Contains(svg, []byte(name)) {
			t.Errorf("SVG missing label %s", name)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 134.00 152.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 134.00 152.00" width="134" height="152"`) {
		t.Errorf("got %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
