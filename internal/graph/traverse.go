package graph

import (
	"context"
	"math"
	"sort"
)

// Hop is a node reached by Reachable, with the depth at which it was first
// discovered and the weight of the best path found to it.
type Hop struct {
	SymbolID string
	Depth    int
	Weight   float64
}

// decayFactor shrinks path weights per additional hop
const decayFactor = 0.8

// Reachable performs a breadth-first traversal from seed up to maxDepth
// hops. The visited set guarantees termination on cyclic graphs: every node
// is reported exactly once, at its shallowest depth. The seed itself is not
// included.
//
// A path's weight is the product of base-weight*confidence over its edges,
// decayed by 0.8^(depth-1). When several same-depth paths reach a node the
// maximum weight is kept.
//
// The context bounds worst-case cost on pathological graphs: cancellation
// or deadline expiry aborts the walk with the context's error.
func (g *Graph) Reachable(ctx context.Context, seed string, maxDepth int) ([]Hop, error) {
	if maxDepth <= 0 || seed == "" {
		return nil, nil
	}

	type frontierNode struct {
		id      string
		product float64 // product of edge weights along the best path
	}

	visited := map[string]int{seed: 0}
	results := make(map[string]*Hop)
	frontier := []frontierNode{{id: seed, product: 1.0}}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decay := math.Pow(decayFactor, float64(depth-1))
		next := make(map[string]frontierNode)

		for _, node := range frontier {
			for _, e := range g.Callees(node.id) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				product := node.product * e.Kind.BaseWeight() * e.Confidence
				weight := product * decay

				if seenDepth, seen := visited[e.TargetID]; seen {
					// Same-depth rediscovery may improve the weight
					if seenDepth == depth && weight > results[e.TargetID].Weight {
						results[e.TargetID].Weight = weight
						if prev, ok := next[e.TargetID]; !ok || product > prev.product {
							next[e.TargetID] = frontierNode{id: e.TargetID, product: product}
						}
					}
					continue
				}
				visited[e.TargetID] = depth
				results[e.TargetID] = &Hop{SymbolID: e.TargetID, Depth: depth, Weight: weight}
				next[e.TargetID] = frontierNode{id: e.TargetID, product: product}
			}
		}

		frontier = frontier[:0]
		for _, node := range next {
			frontier = append(frontier, node)
		}
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].id < frontier[j].id })
	}

	out := make([]Hop, 0, len(results))
	for _, hop := range results {
		out = append(out, *hop)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].SymbolID < out[j].SymbolID
	})
	return out, nil
}
