package graph

import (
	"github.com/lattice-dev/lattice/internal/symtab"
	"github.com/lattice-dev/lattice/pkg/types"
)

// Builder resolves raw references from parser adapters into weighted edges
// using symbol table lookups.
type Builder struct {
	table *symtab.Table
	graph *Graph
}

// NewBuilder creates a builder over the given table and graph
func NewBuilder(table *symtab.Table, graph *Graph) *Builder {
	return &Builder{table: table, graph: graph}
}

// ResolveFile resolves every raw reference emitted for one file and writes
// the resulting edges. Ambiguous references produce one edge per candidate
// with confidence split evenly; unresolved references are dropped, not
// errors. Returns the number of edges written.
//
// Callers serialize writes: resolution depends on the full symbol table, so
// the indexer funnels all ResolveFile calls through its single writer.
func (b *Builder) ResolveFile(filePath string, refs []types.RawReference) int {
	scope := symtab.Scope{FilePath: filePath}
	written := 0

	for _, ref := range refs {
		source, ok := b.sourceSymbol(filePath, ref.FromQualifiedName)
		if !ok {
			continue
		}

		candidates := b.table.LookupByName(ref.TargetHint, scope)
		targets := make([]types.Symbol, 0, len(candidates))
		for _, c := range candidates {
			if c.Symbol.ID != source.ID {
				targets = append(targets, c.Symbol)
			}
		}
		if len(targets) == 0 {
			continue
		}

		confidence := 1.0 / float64(len(targets))
		for _, target := range targets {
			err := b.graph.AddEdge(types.Edge{
				SourceID:   source.ID,
				TargetID:   target.ID,
				Kind:       ref.Kind,
				Confidence: confidence,
			})
			if err == nil {
				written++
			}
		}
	}
	return written
}

// sourceSymbol finds the referencing symbol inside the parsed file
func (b *Builder) sourceSymbol(filePath, qualifiedName string) (types.Symbol, bool) {
	for _, c := range b.table.LookupByName(qualifiedName, symtab.Scope{FilePath: filePath}) {
		if c.Symbol.FilePath == filePath {
			return c.Symbol, true
		}
	}
	return types.Symbol{}, false
}
