// Package pkg provides the core libraries for familytree.
//
// # Overview
//
// Familytree loads a family tree document exactly once and derives a
// generation layout from it. The pkg directory is organized as:
//
//  1. [tree] - Records, documents and immutable snapshots
//  2. [source] - Where documents come from (HTTP, file, MongoDB, SQLite)
//  3. [loader] - The single load and snapshot publication
//  4. [layout] - Column assignment, edges and positions
//  5. [selection] - Ancestor highlighting
//  6. [pipeline] - Orchestration (layout then render, with caching)
//  7. [render] - Graphviz output
//  8. [cache] - Artifact caches (null, file, Redis)
//
// # Architecture
//
//	URL / file / mongodb:// / sqlite:
//	         ↓
//	    [source] Fetch (one attempt)
//	         ↓
//	    [loader] publishes a [tree.Snapshot]
//	         ↓
//	    [layout] Derive: nodes, edges, positions
//	         ↓
//	    JSON / DOT / SVG
//
// # Quick Start
//
//	src, _ := source.Open(ctx, "tree.json")
//	l := loader.New(src, loader.Options{})
//	if err := l.Load(ctx); err != nil {
//	    return err
//	}
//	lay := layout.Derive(l.Snapshot(), layout.Options{})
//	for _, n := range lay.Nodes {
//	    pos, _ := lay.Position(n.ID)
//	    fmt.Println(n.Name, n.Level, n.ColumnIndex, pos.X, pos.Y)
//	}
package pkg
