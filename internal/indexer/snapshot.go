package indexer

import (
	"sort"

	"github.com/google/uuid"

	"github.com/lattice-dev/lattice/internal/graph"
	"github.com/lattice-dev/lattice/internal/storage"
	"github.com/lattice-dev/lattice/internal/symtab"
	"github.com/lattice-dev/lattice/internal/vecindex"
	"github.com/lattice-dev/lattice/pkg/types"
)

// Snapshot captures the engine's current state for persistence. The id is
// freshly generated; graph and vector state are read under one lock so the
// snapshot is internally consistent.
func (e *Engine) Snapshot() *storage.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := &storage.Snapshot{
		ID:              uuid.NewString(),
		ProviderVersion: e.embed.ProviderVersion(),
		Symbols:         e.table.All(),
		Edges:           e.graph.Edges(),
	}

	chunkIDs := make([]string, 0, len(e.chunkOwner))
	for id := range e.chunkOwner {
		chunkIDs = append(chunkIDs, id)
	}
	sort.Strings(chunkIDs)
	for _, id := range chunkIDs {
		snap.Chunks = append(snap.Chunks, e.chunkOwner[id])
		if rec, ok := e.embeddings[id]; ok {
			snap.Embeddings = append(snap.Embeddings, rec)
		}
		if _, ok := e.degraded[id]; ok {
			snap.DegradedChunks = append(snap.DegradedChunks, id)
		}
	}

	paths := make([]string, 0, len(e.fileRefs))
	for path := range e.fileRefs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, ref := range e.fileRefs[path] {
			snap.FileRefs = append(snap.FileRefs, storage.FileRef{FilePath: path, Ref: ref})
		}
	}
	return snap
}

// Restore replaces the engine state with a loaded snapshot. The snapshot
// is validated first; corrupt state is rejected wholesale rather than
// partially applied (the caller falls back to a full reindex).
func (e *Engine) Restore(snap *storage.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Records from a different provider version cannot be compared with
	// fresh query embeddings; drop them so their chunks re-embed
	sameProvider := snap.ProviderVersion == e.embed.ProviderVersion()

	e.table = symtab.New()
	e.graph = graph.New()
	e.builder = graph.NewBuilder(e.table, e.graph)
	e.vectors = vecindex.NewMemory(e.embed.Dimension())
	e.fileRefs = make(map[string][]types.RawReference)
	e.refFilesByBase = make(map[string]map[string]struct{})
	e.symbolChunks = make(map[string][]string)
	e.chunkOwner = make(map[string]types.Chunk)
	e.embeddings = make(map[string]types.EmbeddingRecord)
	e.degraded = make(map[string]struct{})
	e.parseErrors = make(map[string][]types.ParseError)

	for _, sym := range snap.Symbols {
		if err := e.table.Upsert(sym); err != nil {
			return err
		}
	}
	for _, edge := range snap.Edges {
		if err := e.graph.AddEdge(edge); err != nil {
			return err
		}
	}
	for _, chunk := range snap.Chunks {
		e.chunkOwner[chunk.ID] = chunk
		e.symbolChunks[chunk.SymbolID] = append(e.symbolChunks[chunk.SymbolID], chunk.ID)
	}
	for _, rec := range snap.Embeddings {
		if !sameProvider {
			e.degraded[rec.ChunkID] = struct{}{}
			continue
		}
		if err := e.vectors.Upsert(rec.ChunkID, rec.Vector); err != nil {
			return err
		}
		e.embeddings[rec.ChunkID] = rec
	}
	for _, chunkID := range snap.DegradedChunks {
		e.degraded[chunkID] = struct{}{}
	}
	for _, fr := range snap.FileRefs {
		e.fileRefs[fr.FilePath] = append(e.fileRefs[fr.FilePath], fr.Ref)
	}
	for path, refs := range e.fileRefs {
		e.addRefIndexLocked(path, refs)
	}

	e.version.Add(1)
	return nil
}
