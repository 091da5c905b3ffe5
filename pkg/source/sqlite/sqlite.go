// Package sqlite reads family trees from a SQLite database.
//
// Records live in a persons table, one row per record, ordered by seq
// within a tree:
//
//	trees(name TEXT PRIMARY KEY)
//	persons(tree, seq, id, name, father, mother, level)
//
// NULL or empty father/mother columns mean unknown. The source string is a
// database path with an optional tree name:
//
//	sqlite:family.db?tree=smith
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/tree"
)

// DefaultTree is the tree name used when the source string names none.
const DefaultTree = "default"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trees (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS persons (
		tree   TEXT    NOT NULL REFERENCES trees(name) ON DELETE CASCADE,
		seq    INTEGER NOT NULL,
		id     INTEGER NOT NULL,
		name   TEXT    NOT NULL DEFAULT '',
		father TEXT,
		mother TEXT,
		level  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (tree, seq)
	)`,
}

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database on a single connection.
// Sets WAL mode, enables foreign keys and creates the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return db, nil
}

// ParseSpec splits "path?tree=name" into its parts.
func ParseSpec(spec string) (path, name string, err error) {
	path, query, _ := strings.Cut(spec, "?")
	if path == "" {
		return "", "", errors.New(errors.ErrCodeInvalidSource, "sqlite path cannot be empty")
	}
	name = DefaultTree
	for _, kv := range strings.Split(query, "&") {
		if v, ok := strings.CutPrefix(kv, "tree="); ok && v != "" {
			name = v
		}
	}
	if err := errors.ValidateTreeName(name); err != nil {
		return "", "", err
	}
	return path, name, nil
}

// Source reads one tree from a SQLite database.
type Source struct {
	db   *sql.DB
	path string
	tree string
	own  bool
}

// Open opens the database named by spec ("path?tree=name").
func Open(ctx context.Context, spec string) (*Source, error) {
	path, name, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open %s", path)
	}
	return &Source{db: db, path: path, tree: name, own: true}, nil
}

// New reads the named tree from an already opened database. The caller
// keeps ownership of db.
func New(db *sql.DB, name string) *Source {
	return &Source{db: db, path: "db", tree: name}
}

// Fetch loads the tree's records in seq order.
func (s *Source) Fetch(ctx context.Context) (*tree.Document, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trees WHERE name = ?`, s.tree).Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s", s)
	}
	if exists == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: tree not found", s)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, father, mother, level FROM persons WHERE tree = ? ORDER BY seq`, s.tree)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s", s)
	}
	defer rows.Close()

	records := []tree.Person{}
	for rows.Next() {
		var (
			p              tree.Person
			father, mother sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &father, &mother, &p.Level); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "scan %s", s)
		}
		p.Father = tree.ParentRef(father.String)
		p.Mother = tree.ParentRef(mother.String)
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s", s)
	}
	return &tree.Document{Tree: records}, nil
}

// Store replaces the tree's records with doc in one transaction.
func (s *Source) Store(ctx context.Context, doc *tree.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO trees (name) VALUES (?)`, s.tree); err != nil {
		return fmt.Errorf("inserting tree: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE tree = ?`, s.tree); err != nil {
		return fmt.Errorf("clearing persons: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO persons (tree, seq, id, name, father, mother, level) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	if doc != nil {
		for i, p := range doc.Tree {
			if _, err := stmt.ExecContext(ctx, s.tree, i, p.ID, p.Name,
				nullable(p.Father), nullable(p.Mother), p.Level); err != nil {
				return fmt.Errorf("inserting person %d: %w", p.ID, err)
			}
		}
	}
	return tx.Commit()
}

// String describes the database and tree.
func (s *Source) String() string {
	return fmt.Sprintf("sqlite:%s?tree=%s", s.path, s.tree)
}

// Close closes the database if the source opened it.
func (s *Source) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}

func nullable(r tree.ParentRef) sql.NullString {
	return sql.NullString{String: r.String(), Valid: r.Valid()}
}
