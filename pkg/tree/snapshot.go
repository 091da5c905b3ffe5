package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable copy of a loaded tree document.
//
// The zero value is not usable; use NewSnapshot. A nil *Snapshot stands for
// a tree that has not been loaded and behaves like an empty one.
type Snapshot struct {
	records  []Person
	index    map[string]int
	revision string
	hash     string
	source   string
	loadedAt time.Time
}

// DanglingRef is a parent reference that does not match any record.
type DanglingRef struct {
	Child  string    // ID of the record holding the reference
	Parent ParentRef // Unresolved reference
}

// NewSnapshot copies the records of doc into a new snapshot.
// source describes where the document came from and is kept for display.
func NewSnapshot(doc *Document, source string) *Snapshot {
	var records []Person
	if doc != nil {
		records = slices.Clone(doc.Tree)
	}
	if records == nil {
		records = []Person{}
	}

	index := make(map[string]int, len(records))
	for i, p := range records {
		// First record wins for duplicate IDs.
		if _, ok := index[p.Key()]; !ok {
			index[p.Key()] = i
		}
	}

	return &Snapshot{
		records:  records,
		index:    index,
		revision: uuid.NewString(),
		hash:     hashRecords(records),
		source:   source,
		loadedAt: time.Now(),
	}
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns a copy of the records in document order.
func (s *Snapshot) Records() []Person {
	if s == nil {
		return []Person{}
	}
	return slices.Clone(s.records)
}

// All iterates over the records in document order.
func (s *Snapshot) All() iter.Seq2[int, Person] {
	return func(yield func(int, Person) bool) {
		if s == nil {
			return
		}
		for i, p := range s.records {
			if !yield(i, p) {
				return
			}
		}
	}
}

// Lookup finds the first record whose ID matches key.
func (s *Snapshot) Lookup(key string) (Person, bool) {
	if s == nil {
		return Person{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Person{}, false
	}
	return s.records[i], true
}

// Dangling lists parent references that do not resolve within the snapshot.
func (s *Snapshot) Dangling() []DanglingRef {
	var out []DanglingRef
	for _, p := range s.All() {
		for _, ref := range p.Parents() {
			if _, ok := s.index[ref.String()]; !ok {
				out = append(out, DanglingRef{Child: p.Key(), Parent: ref})
			}
		}
	}
	return out
}

// Document returns a copy of the snapshot as a document.
func (s *Snapshot) Document() *Document {
	return &Document{Tree: s.Records()}
}

// Revision returns the unique ID assigned when the snapshot was created.
func (s *Snapshot) Revision() string {
	if s == nil {
		return ""
	}
	return s.revision
}

// Hash returns the SHA-256 hex digest of the records' JSON encoding.
// Snapshots with identical records share a hash across loads.
func (s *Snapshot) Hash() string {
	if s == nil {
		return ""
	}
	return s.hash
}

// Source returns the description of where the snapshot was loaded from.
func (s *Snapshot) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// LoadedAt returns the snapshot creation time.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

func hashRecords(records []Person) string {
	data, _ := json.Marshal(records)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
