package vecindex

import "errors"

// Common errors
var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVector       = errors.New("vector cannot be empty")
)

// Hit is one similarity match from a query
type Hit struct {
	ChunkID    string
	Similarity float64 // cosine similarity in [-1, 1]
}

// Index is the vector index backend capability. Implementations may be
// in-memory, on-disk, or remote; queries use cosine similarity.
type Index interface {
	// Upsert inserts or replaces the vector for a chunk
	Upsert(chunkID string, vector []float32) error

	// Delete removes a chunk's vector; unknown ids are a no-op
	Delete(chunkID string)

	// Query returns the topK most similar chunks, best first. Ties break
	// by lexical chunk id so results are deterministic.
	Query(vector []float32, topK int) ([]Hit, error)

	// Len returns the number of stored vectors
	Len() int
}
