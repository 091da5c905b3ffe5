// Package layout derives positioned nodes and parent-child edges from a tree
// snapshot.
//
// # Overview
//
// Layout is a pure transformation. Given a [tree.Snapshot] it produces:
//
//   - Nodes: one [Node] per record, in snapshot order, tagged with a column
//     index that is unique within the record's generation level
//   - Edges: one [Edge] per present parent reference, from parent to child
//   - Positions: a lookup from node ID to screen coordinates
//
// Nothing else is computed here. Rendering, hit-testing and camera control
// belong to the collaborator that consumes the result.
//
// # Column Assignment
//
// Each level has its own counter starting at 0. Records are visited once,
// left to right; a record takes its level's current counter as its column
// index and the counter is incremented. The indexes within a level are
// therefore exactly 0..k-1 in document order.
//
// # Coordinates
//
// Positions are computed as:
//
//	x = column_index * ColumnWidth
//	y = (maxLevel - level) * RowHeight
//	z = Z
//
// where maxLevel is the largest level in the snapshot (0 when empty). The
// highest level is drawn at the top; level values grow upward on screen.
//
// # Usage
//
//	l := layout.Derive(snapshot, layout.Options{})
//	for _, n := range l.Nodes {
//	    pos, _ := l.Position(n.ID)
//	    fmt.Println(n.Label, pos.X, pos.Y)
//	}
//
// A nil snapshot yields an empty layout.
package layout
