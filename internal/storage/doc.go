// Package storage persists index snapshots to SQLite.
//
// A snapshot is one consistent state of the engine: symbol table, edge
// list, chunks, and the chunk-to-embedding map, keyed by a snapshot id.
// Saves are transactional; loads validate structural invariants and return
// ErrCorrupt rather than partially trusting damaged state.
//
// Two drivers are supported via build tags: mattn/go-sqlite3 under CGO and
// modernc.org/sqlite for pure Go builds.
package storage
