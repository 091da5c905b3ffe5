package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrMissingTree is returned when a document has no "tree" field.
	ErrMissingTree = errors.New(`document has no "tree" field`)
)

// Document is the wire form of a family tree.
type Document struct {
	Tree []Person `json:"tree" bson:"tree"`
}

// wireDocument distinguishes a missing "tree" field from an empty one.
type wireDocument struct {
	Tree *[]Person `json:"tree"`
}

// ReadDocument decodes a tree document from r.
//
// It returns ErrMissingTree if the top-level object has no "tree" field, and
// a decode error for malformed JSON or records of the wrong shape.
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var raw wireDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw.Tree == nil {
		return nil, ErrMissingTree
	}
	return &Document{Tree: *raw.Tree}, nil
}

// ReadDocumentFile reads a tree document from the file at path.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// WriteDocument encodes doc as indented JSON to w.
func WriteDocument(doc *Document, w io.Writer) error {
	if doc == nil {
		doc = &Document{}
	}
	out := *doc
	if out.Tree == nil {
		out.Tree = []Person{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
