package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/familytree/internal/config"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/source"
)

const scenarioJSON = `{"tree":[
	{"id":1,"name":"A","level":1},
	{"id":2,"name":"B","level":1},
	{"id":3,"name":"C","father":1,"mother":2,"level":0}
]}`

// writeScenario writes the three-person tree into dir and returns its path.
func writeScenario(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, []byte(scenarioJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Chdir(t.TempDir())
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"serve", "layout", "render", "browse", "import", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		base    string
		formats []string
		want    map[string]string
	}{
		{"single explicit", "out.svg", "tree", []string{"svg"}, map[string]string{"svg": "out.svg"}},
		{"single from base", "", "people", []string{"dot"}, map[string]string{"dot": "people.dot"}},
		{"json suffix", "", "people", []string{"json"}, map[string]string{"json": "people.layout.json"}},
		{
			"multiple from output", "out/diagram.svg", "tree", []string{"svg", "dot"},
			map[string]string{"svg": "out/diagram.svg", "dot": "out/diagram.dot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.base, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"data/tree.json", "data/tree"},
		{"https://example.com/tree.json", "tree"},
		{"mongodb://localhost/familytree", "tree"},
		{"sqlite:trees.db?tree=smith", "tree"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.spec); got != tt.want {
			t.Errorf("outputBase(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestMergeLayoutOptions(t *testing.T) {
	opts := layout.Options{ColumnWidth: 50}
	mergeLayoutOptions(&opts, layout.Options{ColumnWidth: 80, RowHeight: 120, Z: 1})

	if opts.ColumnWidth != 50 {
		t.Errorf("ColumnWidth = %v, flag value should win", opts.ColumnWidth)
	}
	if opts.RowHeight != 120 || opts.Z != 1 {
		t.Errorf("opts = %+v, want config fallback", opts)
	}
}

func TestResolveSource(t *testing.T) {
	cfg := config.Default()
	if _, err := resolveSource(nil, cfg); err == nil {
		t.Error("resolveSource() without argument or config should fail")
	}

	cfg.Source.Location = "configured.json"
	got, err := resolveSource(nil, cfg)
	if err != nil || got != "configured.json" {
		t.Errorf("resolveSource() = %q, %v; want configured location", got, err)
	}

	got, _ = resolveSource([]string{"arg.json"}, cfg)
	if got != "arg.json" {
		t.Errorf("resolveSource() = %q, argument should win", got)
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeScenario(t, dir)
	out := filepath.Join(dir, "layout.json")

	if err := runCLI(t, "layout", in, "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc pipeline.LayoutDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode layout: %v", err)
	}

	if doc.MaxLevel != 1 || len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Fatalf("layout = %d nodes, %d edges, max level %d", len(doc.Nodes), len(doc.Edges), doc.MaxLevel)
	}
	want := map[string]layout.Position{
		"1": {X: 0, Y: 0, Z: 1},
		"2": {X: 100, Y: 0, Z: 1},
		"3": {X: 0, Y: 100, Z: 1},
	}
	for id, p := range want {
		if doc.Positions[id] != p {
			t.Errorf("position %s = %+v, want %+v", id, doc.Positions[id], p)
		}
	}
}

func TestLayoutCommand_MissingFile(t *testing.T) {
	err := runCLI(t, "layout", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeScenario(t, dir)
	base := filepath.Join(dir, "out", "diagram")

	err := runCLI(t, "render", in, "-f", "dot,json", "-o", base, "--select", "3", "--no-cache")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `id="1->3"`) {
		t.Errorf("dot output missing edge 1->3:\n%s", dot)
	}
	if _, err := os.Stat(base + ".layout.json"); err != nil {
		t.Errorf("layout json not written: %v", err)
	}
}

func TestRenderCommand_InvalidFormat(t *testing.T) {
	in := writeScenario(t, t.TempDir())
	if err := runCLI(t, "render", in, "-f", "pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeScenario(t, dir)
	dst := "sqlite:" + filepath.Join(dir, "trees.db") + "?tree=smith"

	if err := runCLI(t, "import", in, dst); err != nil {
		t.Fatalf("import: %v", err)
	}

	ctx := context.Background()
	src, err := source.Open(ctx, dst)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	doc, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("fetch imported tree: %v", err)
	}
	if len(doc.Tree) != 3 || doc.Tree[2].Father != "1" {
		t.Errorf("imported tree = %+v", doc.Tree)
	}
}

func TestImportCommand_ReadOnlyDestination(t *testing.T) {
	in := writeScenario(t, t.TempDir())
	if err := runCLI(t, "import", in, "https://example.com/tree.json"); err == nil {
		t.Fatal("expected error for read-only destination")
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf strings.Builder
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetOut(&buf)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(buf.String(), appName) {
				t.Errorf("completion %s output does not mention %s", shell, appName)
			}
		})
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("unsupported shell should fail")
	}
}
