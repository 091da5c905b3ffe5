// Package mongo reads family trees stored as MongoDB documents.
//
// Each tree is one document in a collection, keyed by tree name:
//
//	{ "_id": "smith", "tree": [ { "id": 1, "name": "A", "level": 1 }, ... ] }
//
// The source string is a regular MongoDB connection URI with two extra
// query parameters, which are stripped before connecting:
//
//	mongodb://localhost:27017/familytree?collection=trees&tree=smith
//
// The database defaults to "familytree", the collection to "trees" and the
// tree name to "default".
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/tree"
)

// Defaults for URI components left out of the source string.
const (
	DefaultDatabase   = "familytree"
	DefaultCollection = "trees"
	DefaultTree       = "default"
)

// Config locates one tree document.
type Config struct {
	URI        string // connection URI without the tree/collection parameters
	Database   string
	Collection string
	Tree       string
}

// ParseURI splits a source string into connection URI and tree location.
func ParseURI(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidSource, err, "parse mongo uri")
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return Config{}, ferrors.New(ferrors.ErrCodeInvalidSource, "unsupported scheme %q", u.Scheme)
	}

	q := u.Query()
	cfg := Config{
		Database:   strings.Trim(u.Path, "/"),
		Collection: q.Get("collection"),
		Tree:       q.Get("tree"),
	}
	q.Del("collection")
	q.Del("tree")
	u.RawQuery = q.Encode()
	cfg.URI = u.String()

	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Tree == "" {
		cfg.Tree = DefaultTree
	}
	if err := ferrors.ValidateTreeName(cfg.Tree); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Source reads one tree document from MongoDB.
type Source struct {
	client *driver.Client
	coll   *driver.Collection
	cfg    Config
}

// Open parses uri and connects. The connection is verified with a ping so
// configuration errors surface before the first fetch.
func Open(ctx context.Context, uri string) (*Source, error) {
	cfg, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := driver.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "ping mongo")
	}
	return New(client, cfg), nil
}

// New wraps a connected client.
func New(client *driver.Client, cfg Config) *Source {
	return &Source{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
	}
}

// Fetch loads the tree document by name.
func (s *Source) Fetch(ctx context.Context) (*tree.Document, error) {
	var doc tree.Document
	err := s.coll.FindOne(ctx, bson.M{"_id": s.cfg.Tree}).Decode(&doc)
	if errors.Is(err, driver.ErrNoDocuments) {
		return nil, ferrors.New(ferrors.ErrCodeNotFound, "%s: tree document not found", s)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "find %s", s)
	}
	if doc.Tree == nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, tree.ErrMissingTree, "%s", s)
	}
	return &doc, nil
}

// Store replaces the tree document, creating it if needed.
func (s *Source) Store(ctx context.Context, doc *tree.Document) error {
	records := []tree.Person{}
	if doc != nil && doc.Tree != nil {
		records = doc.Tree
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": s.cfg.Tree},
		bson.M{"_id": s.cfg.Tree, "tree": records},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "store %s", s)
	}
	return nil
}

// String describes the tree location without credentials.
func (s *Source) String() string {
	return fmt.Sprintf("mongodb:%s/%s/%s", s.cfg.Database, s.cfg.Collection, s.cfg.Tree)
}

// Close disconnects the client.
func (s *Source) Close() error {
	return s.client.Disconnect(context.Background())
}
