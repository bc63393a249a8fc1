package vecindex

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is the in-memory Index backend. Vectors are stored L2-normalized
// so cosine similarity reduces to a dot product at query time.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32
}

// NewMemory creates an in-memory index. The dimension is pinned by the
// first upsert when zero.
func NewMemory(dimension int) *Memory {
	return &Memory{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}
}

// Upsert inserts or replaces a chunk vector
func (m *Memory) Upsert(chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(vector)
	}
	if len(vector) != m.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), m.dimension)
	}
	m.vectors[chunkID] = normalize(vector)
	return nil
}

// Delete removes a chunk vector
func (m *Memory) Delete(chunkID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, chunkID)
}

// Query returns the topK nearest chunks by cosine similarity
func (m *Memory) Query(vector []float32, topK int) ([]Hit, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topK <= 0 || len(m.vectors) == 0 {
		return nil, nil
	}
	if m.dimension != 0 && len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), m.dimension)
	}

	query := normalize(vector)
	hits := make([]Hit, 0, len(m.vectors))
	for id, stored := range m.vectors {
		var dot float64
		for i := range stored {
			dot += float64(stored[i]) * float64(query[i])
		}
		hits = append(hits, Hit{ChunkID: id, Similarity: dot})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Len returns the number of stored vectors
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func normalize(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	out := make([]float32, len(vector))
	if norm == 0 {
		copy(out, vector)
		return out
	}
	inv := float32(1 / math.Sqrt(norm))
	for i, v := range vector {
		out[i] = v * inv
	}
	return out
}
