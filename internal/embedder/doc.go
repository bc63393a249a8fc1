// Package embedder defines the Embedding Provider capability and its
// bundled implementations.
//
// The Embedder interface is texts-in, fixed-dimension-vectors-out, with a
// declared provider version for cache invalidation. Two providers ship: an
// OpenAI-compatible HTTP provider with request timeout, LRU result caching,
// and exponential-backoff retry, and a deterministic local trigram-hash
// provider for offline use and tests.
//
// Transient provider failures are retried; after exhaustion the error
// surfaces to the indexer, which marks the affected chunks degraded rather
// than aborting the batch.
package embedder
