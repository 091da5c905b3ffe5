// Package tree defines the family-tree document model.
//
// # Overview
//
// A tree document is a JSON object holding an ordered list of person
// records under the "tree" key:
//
//	{
//	  "tree": [
//	    {"id": 1, "name": "A", "level": 1},
//	    {"id": 2, "name": "B", "level": 1},
//	    {"id": 3, "name": "C", "father": 1, "mother": "2", "level": 0}
//	  ]
//	}
//
// Each record must have an "id" and a "level". The "father" and "mother"
// fields are optional parent references and may be written either as a
// number or as a string; both forms refer to the same person. An absent,
// null or empty reference means the parent is unknown.
//
// # Snapshots
//
// A [Snapshot] is the immutable, in-memory copy of a loaded document. It is
// created once per load by [NewSnapshot] and never modified afterwards.
// Accessors hand out copies, and a nil *Snapshot is valid everywhere: it
// represents "no tree loaded yet" and behaves like an empty tree.
//
// References that do not resolve to a record in the same snapshot are
// tolerated. [Snapshot.Dangling] lists them for diagnostics.
package tree
