// Package source fetches family tree documents from their backends.
//
// A [Source] performs one fetch per call and returns a decoded
// [tree.Document]. Sources never retry; the loader decides what a failed
// fetch means.
//
// # Backends
//
//   - [HTTP]: GET a JSON document (the browser viewer's /tree.json)
//   - [File]: read a JSON document from disk
//   - mongo.Source: one MongoDB document per tree (package source/mongo)
//   - sqlite.Source: a persons table in a SQLite database (package source/sqlite)
//
// [Open] picks a backend from a source string:
//
//	src, err := source.Open(ctx, "https://example.com/tree.json")
//	src, err := source.Open(ctx, "testdata/tree.json")
//	src, err := source.Open(ctx, "mongodb://localhost:27017/familytree?tree=smith")
//	src, err := source.Open(ctx, "sqlite:family.db?tree=smith")
//
// Errors carry [errors] codes: NETWORK_ERROR for transport failures and
// unexpected statuses, NOT_FOUND for missing documents, INVALID_DOCUMENT
// for malformed JSON or a missing "tree" field.
package source
