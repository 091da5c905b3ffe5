package source

import (
	"context"
	"errors"
	"io/fs"
	"os"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/tree"
)

// File reads a tree document from a local JSON file.
type File struct {
	path string
}

// NewFile creates a file source.
func NewFile(path string) *File {
	return &File{path: path}
}

// Fetch reads and decodes the file.
func (s *File) Fetch(ctx context.Context) (*tree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(s.path)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "open %s", s.path)
	}
	defer f.Close()
	return decode(f, s.path)
}

// Store writes doc to the file as indented JSON.
func (s *File) Store(ctx context.Context, doc *tree.Document) error {
	f, err := os.Create(s.path)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "create %s", s.path)
	}
	if err := tree.WriteDocument(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// String returns the file path.
func (s *File) String() string { return s.path }

// Close does nothing for file sources.
func (s *File) Close() error { return nil }

var _ Store = (*File)(nil)
