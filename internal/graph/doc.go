// Package graph maintains the directed dependency multigraph and its
// traversal queries.
//
// Edges are written by the Builder, which resolves raw parser references
// against the symbol table: ambiguous names become several edges with split
// confidence, unresolved names are dropped. Queries (Callers, Callees,
// Reachable, StronglyConnectedComponents) are read-only and safe to run
// concurrently with each other.
//
// Every traversal carries an explicit visited set; the graph is never
// assumed acyclic.
package graph
