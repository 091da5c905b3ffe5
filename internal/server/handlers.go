package server

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/loader"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/tree"
)

type healthResponse struct {
	OK       bool       `json:"ok"`
	Service  string     `json:"service"`
	State    string     `json:"state"`
	Revision string     `json:"revision,omitempty"`
	Records  int        `json:"records"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		OK:      true,
		Service: "familytree",
		State:   s.loader.State().String(),
	}
	if c := s.state.Load(); c != nil {
		resp.Revision = c.snap.Revision()
		resp.Records = c.snap.Len()
		loadedAt := c.snap.LoadedAt()
		resp.LoadedAt = &loadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTree serves the loaded document in its wire form.
func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	c := s.state.Load()
	if c == nil {
		writeError(w, s.notLoaded())
		return
	}
	var buf bytes.Buffer
	if err := tree.WriteDocument(c.snap.Document(), &buf); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode tree"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) notLoaded() error {
	if err := s.loader.Err(); err != nil {
		return err
	}
	return loader.ErrNotLoaded
}

// handleLayout always succeeds: an absent snapshot is an empty layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	c := s.state.Load()
	if c == nil {
		writeJSON(w, http.StatusOK, pipeline.NewLayoutDocument(nil))
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == c.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", c.etag)
	writeJSON(w, http.StatusOK, pipeline.NewLayoutDocument(c.layout))
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateNodeID(id); err != nil {
		writeError(w, err)
		return
	}
	p, ok := s.Layout().Position(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid depth %q", raw))
			return
		}
		depth = d
	}
	path, err := pipeline.HighlightWithin(s.Layout(), chi.URLParam(r, "id"), depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleRender(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detailed, err := queryBool(r, "detailed")
		if err != nil {
			writeError(w, err)
			return
		}
		var snap *tree.Snapshot
		if c := s.state.Load(); c != nil {
			snap = c.snap
		}
		arts, hit, err := s.runner.Render(r.Context(), snap, pipeline.Options{
			Layout:   s.opts.Layout,
			Formats:  []string{format},
			Select:   r.URL.Query().Get("select"),
			Detailed: detailed,
		})
		if err != nil {
			s.logger.Warn("render failed", "format", format, "err", err)
			writeError(w, err)
			return
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(arts[format])
	}
}

// queryBool parses a boolean query parameter; absent means false.
// Accepts the strconv.ParseBool forms ("1", "t", "true", ...).
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid %s value %q", name, raw)
	}
	return v, nil
}
