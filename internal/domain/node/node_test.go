package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
)

func TestEquationForFindsBoundSignal(t *testing.T) {
	n := node.New(1, "counter", []int{10}, []int{11})
	n.Equations = append(n.Equations, stream.Equation{
		Pattern: core.Ident(11),
		Expr:    stream.NewIdentifier(10, core.Builtin()),
	})

	eq, ok := n.EquationFor(11)
	assert.True(t, ok)
	assert.Equal(t, 11, eq.Pattern.ID)

	_, ok = n.EquationFor(999)
	assert.False(t, ok)
}

func TestMemoryAddBufferAndCombine(t *testing.T) {
	m := node.NewMemory()
	m.AddBuffer(5, "prev", nil, stream.NewConstant(expr.Int(0), core.Builtin()))
	m.AddCalledNode(6, 2)

	other := node.NewMemory()
	other.AddBuffer(7, "inner_prev", nil, stream.NewConstant(expr.Bool(false), core.Builtin()))
	other.AddCalledNode(8, 3)

	m.Combine(other)
	assert.Contains(t, m.Buffers, 5)
	assert.Contains(t, m.Buffers, 7)
	assert.Contains(t, m.CalledNodes, 6)
	assert.Contains(t, m.CalledNodes, 8)

	m.RemoveCalledNode(6)
	assert.NotContains(t, m.CalledNodes, 6)
}

func TestReducedGraphKeepsMinimumDelay(t *testing.T) {
	g := node.NewReducedGraph()
	g.Set(100, 10, depgraph.Weight(3))
	g.Set(100, 10, depgraph.Weight(1))
	g.Set(100, 10, depgraph.Weight(2))

	w, ok := g.EdgeWeight(100, 10)
	assert.True(t, ok)
	assert.Equal(t, depgraph.Weight(1), w)
}

func TestRegistryRoundTrip(t *testing.T) {
	r := node.NewRegistry()
	assert.Nil(t, r.Get(1))

	g := node.NewReducedGraph()
	r.Set(1, g)
	assert.Same(t, g, r.Get(1))
}
