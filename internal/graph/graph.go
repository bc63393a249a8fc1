package graph

import (
	"sort"
	"sync"

	"github.com/lattice-dev/lattice/pkg/types"
)

// Graph is a directed multigraph over symbol ids. Parallel edges of
// different kinds between the same pair are kept; duplicates of the same
// kind collapse to the maximum confidence. Cycles are expected (recursive
// calls, circular imports) and never assumed away.
//
// All methods are safe for concurrent use.
type Graph struct {
	mu  sync.RWMutex
	out map[string]map[string]types.Edge
	in  map[string]map[string]struct{}
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		out: make(map[string]map[string]types.Edge),
		in:  make(map[string]map[string]struct{}),
	}
}

// AddEdge inserts an edge, deduplicating (source, target, kind) by keeping
// the maximum confidence
func (g *Graph) AddEdge(e types.Edge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	edges, ok := g.out[e.SourceID]
	if !ok {
		edges = make(map[string]types.Edge)
		g.out[e.SourceID] = edges
	}
	key := e.TargetID + "\x00" + string(e.Kind)
	if prev, exists := edges[key]; exists && prev.Confidence >= e.Confidence {
		return nil
	}
	edges[key] = e

	sources, ok := g.in[e.TargetID]
	if !ok {
		sources = make(map[string]struct{})
		g.in[e.TargetID] = sources
	}
	sources[e.SourceID] = struct{}{}
	return nil
}

// RemoveSymbol deletes every edge touching the symbol, in both directions
func (g *Graph) RemoveSymbol(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	targets := make(map[string]struct{})
	for _, e := range g.out[id] {
		targets[e.TargetID] = struct{}{}
	}
	delete(g.out, id)
	for target := range targets {
		if sources, ok := g.in[target]; ok {
			delete(sources, id)
			if len(sources) == 0 {
				delete(g.in, target)
			}
		}
	}

	for src := range g.in[id] {
		edges := g.out[src]
		for key, e := range edges {
			if e.TargetID == id {
				delete(edges, key)
			}
		}
		if len(edges) == 0 {
			delete(g.out, src)
		}
	}
	delete(g.in, id)
}

// RemoveOutEdges deletes only the outgoing edges of a symbol, keeping
// incoming ones. The incremental updater uses this before re-resolving a
// file's references from scratch.
func (g *Graph) RemoveOutEdges(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	targets := make(map[string]struct{})
	for _, e := range g.out[id] {
		targets[e.TargetID] = struct{}{}
	}
	delete(g.out, id)
	for target := range targets {
		if sources, ok := g.in[target]; ok {
			delete(sources, id)
			if len(sources) == 0 {
				delete(g.in, target)
			}
		}
	}
}

// Callees returns the outgoing edges of a symbol, sorted for determinism
func (g *Graph) Callees(id string) []types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]types.Edge, 0, len(g.out[id]))
	for _, e := range g.out[id] {
		out = append(out, e)
	}
	sortEdges(out)
	return out
}

// Callers returns the incoming edges of a symbol, sorted for determinism
func (g *Graph) Callers(id string) []types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []types.Edge
	for src := range g.in[id] {
		for _, e := range g.out[src] {
			if e.TargetID == id {
				out = append(out, e)
			}
		}
	}
	sortEdges(out)
	return out
}

// Sources returns the ids of symbols holding at least one edge into id.
// The incremental updater uses this reverse-reference lookup to find foreign
// files affected by a symbol replacement.
func (g *Graph) Sources(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.in[id]))
	for src := range g.in[id] {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// Edges returns every edge sorted by (source, target, kind), for snapshot
// persistence and invariant checks
func (g *Graph) Edges() []types.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []types.Edge
	for _, edges := range g.out {
		for _, e := range edges {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.out {
		n += len(edges)
	}
	return n
}

// nodeIDs returns every id that appears as an endpoint. Caller holds a lock.
func (g *Graph) nodeIDsLocked() []string {
	seen := make(map[string]struct{}, len(g.out))
	for id := range g.out {
		seen[id] = struct{}{}
	}
	for id := range g.in {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortEdges(edges []types.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		if edges[i].TargetID != edges[j].TargetID {
			return edges[i].TargetID < edges[j].TargetID
		}
		return edges[i].Kind < edges[j].Kind
	})
}
