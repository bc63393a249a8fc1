// Package types provides shared type definitions for the lattice engine.
//
// This package defines the domain model used across the indexing pipeline
// and the hybrid resolver: symbols, edges, chunks, embedding records, parse
// results, and query results.
//
// # Core Types
//
// Symbol represents a source construct with a stable content+path derived id:
//
//	sym := types.Symbol{
//	    ID:            types.DeriveSymbolID("auth/login.py", "auth.login", body),
//	    Kind:          types.KindFunction,
//	    QualifiedName: "auth.login",
//	    FilePath:      "auth/login.py",
//	    Span:          types.LineRange{Start: 10, End: 42},
//	}
//
// Edge is a directed, weighted dependency between two symbols. Ambiguous
// resolution produces several edges with split confidence rather than a
// forced single choice:
//
//	edge := types.Edge{
//	    SourceID:   caller.ID,
//	    TargetID:   callee.ID,
//	    Kind:       types.EdgeCalls,
//	    Confidence: 0.5, // one of two candidates
//	}
//
// Chunk is the embeddable unit; EmbeddingRecord maps a chunk to its vector
// and the provider version that produced it.
//
// # Validation
//
// All domain types implement Validate methods; structural invariant
// violations (dangling edges, malformed ids) are internal bugs, caught by
// these checks in tests rather than surfaced to callers.
package types
