package indexer

import (
	"context"
	"sync"

	"github.com/lattice-dev/lattice/pkg/types"
)

// embedChunks sends chunk batches to the embedding provider through the
// worker pool. Retry with backoff happens inside the provider; a batch
// that still fails marks its chunks degraded and excluded from semantic
// results. Failures never abort indexing of unrelated chunks.
func (e *Engine) embedChunks(ctx context.Context, work []types.Chunk, stats *Stats) {
	if len(work) == 0 {
		return
	}

	var wg sync.WaitGroup
	var statsMu sync.Mutex

	for start := 0; start < len(work); start += e.batchSize {
		end := start + e.batchSize
		if end > len(work) {
			end = len(work)
		}
		batch := work[start:end]

		wg.Add(1)
		submit := func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}

			vectors, err := e.embed.Embed(ctx, texts)
			if err != nil {
				e.markDegraded(batch)
				statsMu.Lock()
				stats.ChunksDegraded += len(batch)
				statsMu.Unlock()
				return
			}

			embedded := e.storeEmbeddings(batch, vectors)
			statsMu.Lock()
			stats.ChunksEmbedded += embedded
			statsMu.Unlock()
		}
		if err := e.pool.Submit(submit); err != nil {
			// Pool released mid-shutdown: run inline so no chunk is lost
			submit()
		}
	}
	wg.Wait()
}

// storeEmbeddings publishes a batch's vectors into the index and the
// chunk-to-embedding map. Returns the number stored.
func (e *Engine) storeEmbeddings(batch []types.Chunk, vectors [][]float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored := 0
	providerVersion := e.embed.ProviderVersion()
	for i, chunk := range batch {
		if i >= len(vectors) {
			break
		}
		// The chunk may have been removed by a concurrent update while
		// the provider call was in flight; don't resurrect it
		if _, alive := e.chunkOwner[chunk.ID]; !alive {
			continue
		}
		if err := e.vectors.Upsert(chunk.ID, vectors[i]); err != nil {
			e.degraded[chunk.ID] = struct{}{}
			continue
		}
		e.embeddings[chunk.ID] = types.EmbeddingRecord{
			ChunkID:         chunk.ID,
			Vector:          vectors[i],
			ProviderVersion: providerVersion,
		}
		delete(e.degraded, chunk.ID)
		stored++
	}
	e.version.Add(1)
	return stored
}

// markDegraded records chunks whose embedding could not be produced.
// Structural results for their symbols remain available.
func (e *Engine) markDegraded(batch []types.Chunk) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, chunk := range batch {
		if _, alive := e.chunkOwner[chunk.ID]; alive {
			e.degraded[chunk.ID] = struct{}{}
		}
	}
	e.version.Add(1)
}
