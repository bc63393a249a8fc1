// Package resolver executes hybrid queries over the engine.
//
// A query runs two passes. The structural pass roots a depth-bounded
// traversal at a seed symbol (given directly or resolved from the query
// text) and normalizes path weights so the top hit scores 1.0. The
// semantic pass embeds the query text and searches the vector index,
// mapping cosine similarity into [0,1] via (s+1)/2.
//
// The passes merge over the union of candidate symbols:
//
//	combined = w*structural + (1-w)*semantic   // missing side scored 0
//
// Ordering is deterministic: combined score descending, ties broken by
// shallower structural depth, then lexical symbol id. Each result carries
// an explanation tag naming the passes that produced it.
//
// Provider failure on the query text degrades to structural-only results;
// responses carry an explicit Degraded indicator rather than silently
// omitting the semantic side. An empty candidate set is an empty response,
// not an error.
package resolver
