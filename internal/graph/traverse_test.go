package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice/pkg/types"
)

func TestReachableChainWeights(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("b", "c", types.EdgeCalls, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 3)
	require.NoError(t, err)
	require.Len(t, hops, 2)

	// calls base weight 1.0; depth 2 decays by 0.8
	assert.Equal(t, "b", hops[0].SymbolID)
	assert.Equal(t, 1, hops[0].Depth)
	assert.InDelta(t, 1.0, hops[0].Weight, 1e-9)

	assert.Equal(t, "c", hops[1].SymbolID)
	assert.Equal(t, 2, hops[1].Depth)
	assert.InDelta(t, 0.8, hops[1].Weight, 1e-9)
}

func TestReachableConfidenceAndKindWeights(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeImports, 0.5)))

	hops, err := g.Reachable(context.Background(), "a", 1)
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.InDelta(t, 0.7*0.5, hops[0].Weight, 1e-9)
}

func TestReachableTerminatesOnCycle(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("b", "a", types.EdgeCalls, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 10)
	require.NoError(t, err)

	// Each node reported exactly once at its shallowest depth, seed excluded
	require.Len(t, hops, 1)
	assert.Equal(t, "b", hops[0].SymbolID)
	assert.Equal(t, 1, hops[0].Depth)
}

func TestReachableSelfLoop(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "a", types.EdgeCalls, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestReachableDepthBound(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("b", "c", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("c", "d", types.EdgeCalls, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 2)
	require.NoError(t, err)
	require.Len(t, hops, 2)
	for _, hop := range hops {
		assert.LessOrEqual(t, hop.Depth, 2)
	}
}

func TestReachableSameDepthKeepsMaxWeight(t *testing.T) {
	// Two depth-2 paths to d: via b (calls, weight 1.0) and via c
	// (references, weight 0.5); d keeps the stronger one
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("a", "c", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("b", "d", types.EdgeCalls, 1.0)))
	require.NoError(t, g.AddEdge(edge("c", "d", types.EdgeReferences, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 2)
	require.NoError(t, err)

	var d *Hop
	for i := range hops {
		if hops[i].SymbolID == "d" {
			d = &hops[i]
		}
	}
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Depth)
	assert.InDelta(t, 1.0*1.0*0.8, d.Weight, 1e-9)
}

func TestReachableCancellation(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Reachable(ctx, "a", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReachableEmptyInputs(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(edge("a", "b", types.EdgeCalls, 1.0)))

	hops, err := g.Reachable(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Empty(t, hops)

	hops, err = g.Reachable(context.Background(), "", 3)
	require.NoError(t, err)
	assert.Empty(t, hops)

	hops, err = g.Reachable(context.Background(), "unknown", 3)
	require.NoError(t, err)
	assert.Empty(t, hops)
}
