package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ModalityCode tags chunks extracted from source text. It is the only
// modality this engine indexes.
const ModalityCode = "code"

// Chunk is the embeddable unit of a symbol. Symbols whose body fits the
// configured size bound map to exactly one chunk; larger bodies are split
// into consecutive chunks over the same symbol.
type Chunk struct {
	ID       string
	SymbolID string
	Text     string
	Span     LineRange
	Modality string
}

// DeriveChunkID computes a stable chunk identifier from the owning symbol
// and the chunk text. Re-chunking unchanged content yields identical ids.
func DeriveChunkID(symbolID string, seq int, text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%d:%s", symbolID, seq, hex.EncodeToString(h[:])[:8])
}

// Validate checks chunk invariants
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk id is required")
	}
	if c.SymbolID == "" {
		return errors.New("chunk symbol id is required")
	}
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}
	if c.Modality != ModalityCode {
		return fmt.Errorf("unsupported modality %q", c.Modality)
	}
	return nil
}

// EmbeddingRecord associates a chunk with its embedding vector. The vector
// dimension is fixed by the provider; ProviderVersion invalidates records
// when the provider changes.
type EmbeddingRecord struct {
	ChunkID         string
	Vector          []float32
	ProviderVersion string
}

// Validate checks record invariants
func (r *EmbeddingRecord) Validate() error {
	if r.ChunkID == "" {
		return errors.New("embedding chunk id is required")
	}
	if len(r.Vector) == 0 {
		return errors.New("embedding vector cannot be empty")
	}
	if r.ProviderVersion == "" {
		return errors.New("embedding provider version is required")
	}
	return nil
}
