package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/domain/depgraph"
)

func TestEdgeWeightPicksMinimum(t *testing.T) {
	g := depgraph.New()
	g.AddEdge(1, 2, depgraph.Weight(2))
	g.AddEdge(1, 2, depgraph.Weight(0))
	g.AddEdge(1, 2, depgraph.Weight(1))

	w, ok := g.EdgeWeight(1, 2)
	require.True(t, ok)
	assert.Equal(t, depgraph.Weight(0), w)
}

func TestEdgeWeightAbsent(t *testing.T) {
	g := depgraph.New()
	g.AddVertex(1)
	_, ok := g.EdgeWeight(1, 2)
	assert.False(t, ok)
}

func TestToposortOrdersInstantaneousEdges(t *testing.T) {
	g := depgraph.New()
	g.AddEdge(1, 2, depgraph.Zero())
	g.AddEdge(2, 3, depgraph.Zero())

	order, err := g.Toposort()
	require.NoError(t, err)
	pos := make(map[int]int)
	for i, v := range order {
		pos[v] = i
	}
	assert.Less(t, pos[1], pos[2])
	assert.Less(t, pos[2], pos[3])
}

func TestToposortIgnoresDelayedEdges(t *testing.T) {
	// a self-loop through a delay must not be a causality error
	g := depgraph.New()
	g.AddEdge(1, 1, depgraph.Weight(1))

	_, err := g.Toposort()
	assert.NoError(t, err)
}

func TestToposortDetectsInstantaneousCycle(t *testing.T) {
	g := depgraph.New()
	g.AddEdge(1, 2, depgraph.Zero())
	g.AddEdge(2, 1, depgraph.Zero())

	_, err := g.Toposort()
	require.Error(t, err)
	var cycleErr *depgraph.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []int{1, 2}, cycleErr.Cycle)
}
