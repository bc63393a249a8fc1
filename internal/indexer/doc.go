// Package indexer coordinates the indexing pipeline: parse -> symbol table
// -> dependency graph -> chunk -> embed.
//
// Scanning and embedding are file-parallel over bounded worker pools.
// Every state mutation funnels through one serialized apply step, because
// edge resolution depends on a consistent symbol table. Queries read under
// a shared lock and never block each other; a monotonic version number
// lets callers reconcile graph and vector state to the same snapshot.
//
// The incremental updater (UpdateFile, RemoveFile) diffs a re-parsed file
// against the table's prior snapshot for that file and cascades removals
// so no dangling edges or orphaned embeddings survive, including in files
// that referenced the replaced symbols.
package indexer
