package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrDimensionMismatch = errors.New("provider returned wrong dimension")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedder is the Embedding Provider capability: texts in, fixed-dimension
// vectors out. Implementations are deterministic for identical input and
// version; ProviderVersion changes invalidate cached records downstream.
type Embedder interface {
	// Embed generates one vector per input text, in order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed output dimension
	Dimension() int

	// ProviderVersion identifies the provider+model for cache invalidation
	ProviderVersion() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache provides in-memory LRU caching of vectors by content hash
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector with automatic LRU eviction
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Len returns the current cache size
func (c *Cache) Len() int {
	return c.cache.Len()
}

// ComputeHash computes the SHA-256 cache key for a text
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateTexts rejects empty batches and empty members
func ValidateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrEmptyText)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d", ErrEmptyText, i)
		}
	}
	return nil
}
