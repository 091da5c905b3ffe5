// Package server exposes a loaded family tree over HTTP.
//
// The server subscribes to a [loader.Loader]. Each published snapshot is
// laid out once and swapped in atomically; until then every layout endpoint
// answers with an empty tree so viewers render nothing instead of failing.
//
// Routes:
//
//	GET /health                      liveness and load state
//	GET /tree.json                   the loaded document (503 while absent)
//	GET /api/layout                  nodes, edges and positions
//	GET /api/nodes/{id}/position     one node's coordinates
//	GET /api/nodes/{id}/selection    the node's ancestor path
//	GET /api/render.svg?select=<id>  Graphviz rendering (cached)
//	GET /api/render.dot?select=<id>  DOT source (cached)
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/loader"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/tree"
)

// Options configures a Server.
type Options struct {
	Layout layout.Options
	Logger *log.Logger

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// current pairs a derived layout with the snapshot it came from.
type current struct {
	snap   *tree.Snapshot
	layout *layout.Layout
	etag   string
}

// Server serves one loader's tree.
type Server struct {
	loader *loader.Loader
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	state  atomic.Pointer[current]
	router chi.Router
}

// New creates a server and subscribes it to l. A nil runner renders without
// caching.
func New(l *loader.Loader, runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	opts.Layout.SetDefaults()

	s := &Server{
		loader: l,
		runner: runner,
		opts:   opts,
		logger: opts.Logger,
	}
	s.router = s.routes()
	l.Subscribe(s.publish)
	return s
}

// publish derives the layout of a new snapshot and swaps it in.
func (s *Server) publish(snap *tree.Snapshot) {
	ctx := context.Background()
	popts := pipeline.Options{Layout: s.opts.Layout}
	l, err := s.runner.Layout(ctx, snap, popts)
	if err != nil {
		s.logger.Error("layout failed", "revision", snap.Revision(), "err", err)
		return
	}
	s.state.Store(&current{
		snap:   snap,
		layout: l,
		etag:   layoutETag(s.runner.Keyer.LayoutKey(snap.Hash(), popts.LayoutKeyOpts()), snap.Revision()),
	})
	s.logger.Info("layout ready",
		"revision", l.Revision,
		"nodes", len(l.Nodes),
		"edges", len(l.Edges),
		"max_level", l.MaxLevel)
}

// Layout returns the current layout, or nil while no snapshot is published.
func (s *Server) Layout() *layout.Layout {
	if c := s.state.Load(); c != nil {
		return c.layout
	}
	return nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/tree.json", s.handleTree)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/nodes/{id}/position", s.handlePosition)
		r.Get("/nodes/{id}/selection", s.handleSelection)
		r.Get("/render.svg", s.handleRender(pipeline.FormatSVG, "image/svg+xml"))
		r.Get("/render.dot", s.handleRender(pipeline.FormatDOT, "text/vnd.graphviz; charset=utf-8"))
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// layoutETag identifies a served layout. The layout key covers content and
// options; the revision distinguishes loads of identical content.
func layoutETag(layoutKey, revision string) string {
	return `"` + layoutKey + "@" + revision + `"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorBody{Error: errorDetail{
		Code:    code,
		Message: errors.UserMessage(err),
	}})
}
