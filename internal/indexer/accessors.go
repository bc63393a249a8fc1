package indexer

import (
	"context"
	"sort"

	"github.com/lattice-dev/lattice/internal/graph"
	"github.com/lattice-dev/lattice/internal/symtab"
	"github.com/lattice-dev/lattice/internal/vecindex"
	"github.com/lattice-dev/lattice/pkg/types"
)

// Symbol returns a symbol by id
func (e *Engine) Symbol(id string) (types.Symbol, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table.Get(id)
}

// SymbolForChunk maps a chunk back to its owning symbol
func (e *Engine) SymbolForChunk(chunkID string) (types.Symbol, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chunk, ok := e.chunkOwner[chunkID]
	if !ok {
		return types.Symbol{}, false
	}
	return e.table.Get(chunk.SymbolID)
}

// FindSeed resolves free text to a seed symbol: exact qualified-name match
// first, then the fuzzy fallbacks of the symbol table (dotted suffix, base
// name). Candidates are already deterministically ranked.
func (e *Engine) FindSeed(text string) (types.Symbol, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	candidates := e.table.LookupByName(text, symtab.Scope{})
	if len(candidates) == 0 {
		return types.Symbol{}, false
	}
	return candidates[0].Symbol, true
}

// Reachable runs the structural traversal under the engine read lock so it
// sees a consistent snapshot of the graph
func (e *Engine) Reachable(ctx context.Context, seed string, maxDepth int) ([]graph.Hop, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Reachable(ctx, seed, maxDepth)
}

// Callers exposes the incoming edges of a symbol
func (e *Engine) Callers(id string) []types.Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Callers(id)
}

// Callees exposes the outgoing edges of a symbol
func (e *Engine) Callees(id string) []types.Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Callees(id)
}

// Cycles reports the strongly connected components that form cycles
func (e *Engine) Cycles() [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Cycles()
}

// QueryVectors runs a semantic similarity query. Degraded chunks never
// reach the vector index, so they are excluded by construction.
func (e *Engine) QueryVectors(vector []float32, topK int) ([]vecindex.Hit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vectors.Query(vector, topK)
}

// Status summarizes engine state for surfacing to callers
type Status struct {
	Version        uint64
	Symbols        int
	Edges          int
	Chunks         int
	Embedded       int
	DegradedChunks []string
	ParseErrors    map[string][]types.ParseError
}

// Degraded reports whether any chunk is currently excluded from semantic
// results. Query responses carry this as an explicit indicator instead of
// silently omitting results.
func (e *Engine) Degraded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.degraded) > 0
}

// Status returns a consistent view of engine counters
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		Version:  e.version.Load(),
		Symbols:  e.table.Len(),
		Edges:    e.graph.EdgeCount(),
		Chunks:   len(e.chunkOwner),
		Embedded: len(e.embeddings),
	}
	for chunkID := range e.degraded {
		st.DegradedChunks = append(st.DegradedChunks, chunkID)
	}
	sort.Strings(st.DegradedChunks)
	if len(e.parseErrors) > 0 {
		st.ParseErrors = make(map[string][]types.ParseError, len(e.parseErrors))
		for path, errs := range e.parseErrors {
			st.ParseErrors[path] = errs
		}
	}
	return st
}
