package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lattice-dev/lattice/pkg/types"
)

var (
	// ErrNotFound is returned when a requested snapshot doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when persisted state fails invariant checks
	// on load. A corrupt snapshot is never partially trusted: the caller
	// must fall back to a full reindex.
	ErrCorrupt = errors.New("index corruption detected")
)

// FileRef is a raw reference remembered per file. References are persisted
// because the incremental updater re-resolves unchanged files when their
// candidate targets change; without the refs a loaded snapshot could not be
// updated incrementally.
type FileRef struct {
	FilePath string
	Ref      types.RawReference
}

// Snapshot is the persisted form of one consistent index state: symbol
// table, edge list, chunks, and the chunk-to-embedding map, all keyed by
// the snapshot id.
type Snapshot struct {
	ID              string
	ProviderVersion string
	CreatedAt       time.Time
	Symbols         []types.Symbol
	Edges           []types.Edge
	Chunks          []types.Chunk
	Embeddings      []types.EmbeddingRecord
	DegradedChunks  []string
	FileRefs        []FileRef
}

// Validate checks the snapshot's structural invariants: every edge endpoint
// references a stored symbol, every embedding references a stored chunk.
func (s *Snapshot) Validate() error {
	symbols := make(map[string]struct{}, len(s.Symbols))
	for _, sym := range s.Symbols {
		symbols[sym.ID] = struct{}{}
	}
	for _, e := range s.Edges {
		if _, ok := symbols[e.SourceID]; !ok {
			return ErrCorrupt
		}
		if _, ok := symbols[e.TargetID]; !ok {
			return ErrCorrupt
		}
	}
	chunks := make(map[string]struct{}, len(s.Chunks))
	for _, c := range s.Chunks {
		if _, ok := symbols[c.SymbolID]; !ok {
			return ErrCorrupt
		}
		chunks[c.ID] = struct{}{}
	}
	for _, r := range s.Embeddings {
		if _, ok := chunks[r.ChunkID]; !ok {
			return ErrCorrupt
		}
	}
	return nil
}

// Store persists index snapshots
type Store interface {
	// SaveSnapshot writes one snapshot atomically
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LoadSnapshot reads a snapshot by id, validating invariants
	LoadSnapshot(ctx context.Context, id string) (*Snapshot, error)

	// LatestSnapshot reads the most recently saved snapshot
	LatestSnapshot(ctx context.Context) (*Snapshot, error)

	// Close releases the underlying database
	Close() error
}
