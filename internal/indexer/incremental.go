package indexer

import (
	"context"
	"time"
)

// UpdateFile re-drives the pipeline for one changed file: re-parse, diff
// against the prior symbol snapshot, cascade removals, re-resolve the
// affected references (including foreign files that targeted replaced
// symbols), and re-embed only the added or changed symbols.
//
// A full reindex of the final file set and the sequential application of
// UpdateFile calls for the same history converge to the same state.
func (e *Engine) UpdateFile(ctx context.Context, path string, content []byte) (*Stats, error) {
	start := time.Now()

	p, ok := e.registry.ForFile(path)
	if !ok {
		return &Stats{}, nil
	}
	result := p.Parse(path, content)

	stats, work := e.apply([]scan{{path: path, result: result, content: content}})
	e.embedChunks(ctx, work, stats)

	stats.Duration = time.Since(start)
	return stats, nil
}

// RemoveFile deletes every symbol owned by a file, cascading edges (both
// directions), chunks, and embedding records, then re-resolves files whose
// references pointed at the removed symbols. Leaves no dangling edges or
// orphaned embeddings.
func (e *Engine) RemoveFile(ctx context.Context, path string) (*Stats, error) {
	start := time.Now()

	stats, _ := e.apply([]scan{{path: path, removeAll: true}})

	stats.Duration = time.Since(start)
	return stats, nil
}
