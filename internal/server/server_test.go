package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/loader"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/selection"
	"github.com/matzehuels/familytree/pkg/source"
)

const sampleJSON = `{"tree":[
	{"id":1,"name":"A","level":1},
	{"id":2,"name":"B","level":1},
	{"id":3,"name":"C","father":"1","mother":"2","level":0}
]}`

func quietLogger() *log.Logger { return log.New(&bytes.Buffer{}) }

// newTestServer returns a server over a file source. When load is true the
// tree is loaded before returning.
func newTestServer(t *testing.T, body string, load bool) (*Server, *loader.Loader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	if body != "" {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l := loader.New(source.NewFile(path), loader.Options{Logger: quietLogger()})
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, quietLogger())
	s := New(l, runner, Options{Logger: quietLogger()})
	if load {
		_ = l.Load(context.Background())
	}
	return s, l
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, l := newTestServer(t, sampleJSON, false)

	rec := get(t, s.Handler(), "/health")
	h := decode[healthResponse](t, rec)
	if rec.Code != http.StatusOK || !h.OK || h.Service != "familytree" || h.State != "pending" {
		t.Errorf("pending health = %d %+v", rec.Code, h)
	}

	_ = l.Load(context.Background())
	h = decode[healthResponse](t, get(t, s.Handler(), "/health"))
	if h.State != "loaded" || h.Records != 3 || h.Revision == "" {
		t.Errorf("loaded health = %+v", h)
	}
	if h.LoadedAt == nil || h.LoadedAt.IsZero() {
		t.Errorf("loaded health has no load time: %+v", h)
	}
}

func TestLayoutBeforeLoad(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, false)

	rec := get(t, s.Handler(), "/api/layout")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decode[pipeline.LayoutDocument](t, rec)
	if len(doc.Nodes) != 0 || len(doc.Edges) != 0 || doc.MaxLevel != 0 {
		t.Errorf("absent layout = %+v", doc)
	}
}

func TestLayoutAfterLoad(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	rec := get(t, s.Handler(), "/api/layout")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decode[pipeline.LayoutDocument](t, rec)
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 || doc.MaxLevel != 1 {
		t.Fatalf("layout = %+v", doc)
	}
	wantIDs := []string{"1->3", "2->3"}
	for i, e := range doc.Edges {
		if e.ID != wantIDs[i] || e.Label != "" {
			t.Errorf("edge %d = %+v", i, e)
		}
	}
	if got := doc.Positions["2"]; got != (layout.Position{X: 100, Y: 0, Z: 1}) {
		t.Errorf("position of 2 = %+v", got)
	}

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	if rec := get(t, s.Handler(), "/api/layout", "If-None-Match", etag); rec.Code != http.StatusNotModified {
		t.Errorf("conditional request status = %d", rec.Code)
	}
}

func TestTreeJSON(t *testing.T) {
	s, l := newTestServer(t, sampleJSON, false)

	rec := get(t, s.Handler(), "/tree.json")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("pending status = %d", rec.Code)
	}

	_ = l.Load(context.Background())
	rec = get(t, s.Handler(), "/tree.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc struct {
		Tree []map[string]any `json:"tree"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Tree) != 3 {
		t.Errorf("tree = %v", doc.Tree)
	}
}

func TestFailedLoad(t *testing.T) {
	s, l := newTestServer(t, `{"people":[]}`, false)
	if err := l.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}

	rec := get(t, s.Handler(), "/tree.json")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
	body := decode[errorBody](t, rec)
	if body.Error.Code != "LOAD_FAILED" {
		t.Errorf("error = %+v", body.Error)
	}

	doc := decode[pipeline.LayoutDocument](t, get(t, s.Handler(), "/api/layout"))
	if len(doc.Nodes) != 0 {
		t.Errorf("failed load should serve empty layout, got %+v", doc)
	}
	h := decode[healthResponse](t, get(t, s.Handler(), "/health"))
	if h.State != "failed" {
		t.Errorf("state = %q", h.State)
	}
}

func TestPosition(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	rec := get(t, s.Handler(), "/api/nodes/3/position")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if p := decode[layout.Position](t, rec); p != (layout.Position{X: 0, Y: 100, Z: 1}) {
		t.Errorf("position = %+v", p)
	}

	rec = get(t, s.Handler(), "/api/nodes/42/position")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "NODE_NOT_FOUND" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestPositionBeforeLoad(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, false)
	if rec := get(t, s.Handler(), "/api/nodes/1/position"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSelection(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	rec := get(t, s.Handler(), "/api/nodes/3/selection")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	p := decode[selection.Path](t, rec)
	if !slices.Equal(p.Nodes, []string{"1", "2", "3"}) || !slices.Equal(p.Edges, []string{"1->3", "2->3"}) {
		t.Errorf("path = %+v", p)
	}

	if rec := get(t, s.Handler(), "/api/nodes/9/selection"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
}

func TestLayoutETagChangesWithRevision(t *testing.T) {
	first, _ := newTestServer(t, sampleJSON, true)
	second, _ := newTestServer(t, sampleJSON, true)

	etag := get(t, first.Handler(), "/api/layout").Header().Get("ETag")
	rec := get(t, second.Handler(), "/api/layout", "If-None-Match", etag)
	if rec.Code != http.StatusOK {
		t.Fatalf("stale ETag from another load got status %d", rec.Code)
	}
	if rec.Header().Get("ETag") == etag {
		t.Error("identical content loaded twice should get distinct ETags")
	}
}

func TestSelectionDepth(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	p := decode[selection.Path](t, get(t, s.Handler(), "/api/nodes/3/selection?depth=1"))
	if !slices.Equal(p.Nodes, []string{"1", "2", "3"}) {
		t.Errorf("depth 1 path = %+v", p)
	}
	p = decode[selection.Path](t, get(t, s.Handler(), "/api/nodes/1/selection?depth=1"))
	if !slices.Equal(p.Nodes, []string{"1"}) || len(p.Edges) != 0 {
		t.Errorf("root path = %+v", p)
	}

	for _, bad := range []string{"-1", "x"} {
		if rec := get(t, s.Handler(), "/api/nodes/3/selection?depth="+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("depth=%s status = %d", bad, rec.Code)
		}
	}
}

func TestRenderDetailed(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	for _, v := range []string{"1", "t", "true", "TRUE"} {
		rec := get(t, s.Handler(), "/api/render.dot?detailed="+v)
		if rec.Code != http.StatusOK {
			t.Fatalf("detailed=%s status = %d", v, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "level: ") {
			t.Errorf("detailed=%s labels lack id and level:\n%s", v, rec.Body)
		}
	}

	rec := get(t, s.Handler(), "/api/render.dot?detailed=0")
	if strings.Contains(rec.Body.String(), "level: ") {
		t.Errorf("detailed=0 should use plain labels:\n%s", rec.Body)
	}

	if rec := get(t, s.Handler(), "/api/render.dot?detailed=maybe"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid detailed status = %d", rec.Code)
	}
}

func TestRenderDOT(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	rec := get(t, s.Handler(), "/api/render.dot?select=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/vnd.graphviz") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `"1" -> "3"`) || !strings.Contains(rec.Body.String(), "penwidth=2") {
		t.Errorf("dot = %s", rec.Body)
	}

	if rec := get(t, s.Handler(), "/api/render.dot?select=77"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown selection status = %d", rec.Code)
	}
}

func TestRenderSVG(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, true)

	rec := get(t, s.Handler(), "/api/render.svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Content-Type") != "image/svg+xml" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("body is not svg: %.200s", rec.Body)
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, false)
	rec := get(t, s.Handler(), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, _ := newTestServer(t, sampleJSON, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe: %v", err)
	}
}
