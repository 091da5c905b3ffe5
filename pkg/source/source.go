package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/source/mongo"
	"github.com/matzehuels/familytree/pkg/source/sqlite"
	"github.com/matzehuels/familytree/pkg/tree"
)

// ErrNotFound is returned when the backend has no document.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "tree document not found")

// Source is a backend the loader fetches a tree document from.
type Source interface {
	// Fetch retrieves and decodes the document once.
	Fetch(ctx context.Context) (*tree.Document, error)

	// String describes the source for logs and snapshot metadata.
	String() string

	// Close releases connections held by the source.
	Close() error
}

// Store is implemented by sources that can also persist a document.
type Store interface {
	Source
	Store(ctx context.Context, doc *tree.Document) error
}

// Open returns the Source described by spec:
//
//   - http:// and https:// URLs fetch over HTTP
//   - mongodb:// and mongodb+srv:// URIs read from MongoDB
//   - sqlite:<path> reads from a SQLite database
//   - anything else is a local file path
func Open(ctx context.Context, spec string) (Source, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, errors.New(errors.ErrCodeInvalidSource, "source cannot be empty")
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return NewHTTP(spec, nil), nil
	case strings.HasPrefix(spec, "mongodb://"), strings.HasPrefix(spec, "mongodb+srv://"):
		return mongo.Open(ctx, spec)
	case strings.HasPrefix(spec, "sqlite:"):
		return sqlite.Open(ctx, strings.TrimPrefix(spec, "sqlite:"))
	default:
		return NewFile(spec), nil
	}
}

// WithHeaders adds request headers to an HTTP source. Other sources are
// returned unchanged.
func WithHeaders(src Source, headers map[string]string) Source {
	if h, ok := src.(*HTTP); ok {
		for k, v := range headers {
			h.WithHeader(k, v)
		}
	}
	return src
}

// decode reads a document from r, mapping decode failures to
// INVALID_DOCUMENT.
func decode(r io.Reader, desc string) (*tree.Document, error) {
	doc, err := tree.ReadDocument(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "%s", desc)
	}
	return doc, nil
}

func notFound(desc string) error {
	return fmt.Errorf("%s: %w", desc, ErrNotFound)
}

var (
	_ Store = (*mongo.Source)(nil)
	_ Store = (*sqlite.Source)(nil)
)
