package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/application/transform"
	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

func TestInlineWhenNeededResolvesShiftedCausalityLoop(t *testing.T) {
	st := symboltable.New()
	reg := node.NewRegistry()

	a := st.InsertFreshSignal("a", symboltable.Input, "int")
	o := st.InsertFreshSignal("o", symboltable.Output, "int")
	callee := node.New(2, "identity", []int{a}, []int{o})
	callee.Equations = append(callee.Equations, stream.Equation{
		Pattern: core.Ident(o),
		Expr:    stream.NewIdentifier(a, core.Builtin()),
	})

	rg := node.NewReducedGraph()
	rg.Set(o, a, depgraph.Zero())
	reg.Set(2, rg)

	r := st.InsertFreshSignal("r", symboltable.Output, "int")
	caller := node.New(1, "loopy", nil, []int{r})

	selfArg := stream.NewIdentifier(r, core.Builtin())
	selfArg.Dependencies = depgraph.Set{{Signal: r, Label: depgraph.Zero()}}
	call := stream.NewNodeApplication(2, []stream.NodeInput{{FormalInputID: a, Expr: selfArg}}, core.Builtin())
	caller.Equations = append(caller.Equations, stream.Equation{Pattern: core.Ident(r), Expr: call})
	st.SetNodeSignature(2, []int{a}, []int{o})

	lookup := func(id int) *node.Node {
		if id == 2 {
			return callee
		}
		return nil
	}

	transform.InlineWhenNeeded(caller, st, reg, lookup)

	require.NotEmpty(t, caller.Equations)
	for _, eq := range caller.Equations {
		assert.NotEqual(t, stream.KindNodeApplication, eq.Expr.Kind)
	}
}

func TestInlineWhenNeededLeavesOrdinaryCallsAlone(t *testing.T) {
	st := symboltable.New()
	reg := node.NewRegistry()

	a := st.InsertFreshSignal("a", symboltable.Input, "int")
	o := st.InsertFreshSignal("o", symboltable.Output, "int")
	callee := node.New(2, "identity", []int{a}, []int{o})

	rg := node.NewReducedGraph()
	rg.Set(o, a, depgraph.Zero())
	reg.Set(2, rg)

	s := st.InsertFreshSignal("s", symboltable.Input, "int")
	r := st.InsertFreshSignal("r", symboltable.Output, "int")
	caller := node.New(1, "passthrough", []int{s}, []int{r})

	arg := stream.NewIdentifier(s, core.Builtin())
	arg.Dependencies = depgraph.Set{{Signal: s, Label: depgraph.Zero()}}
	call := stream.NewNodeApplication(2, []stream.NodeInput{{FormalInputID: a, Expr: arg}}, core.Builtin())
	caller.Equations = append(caller.Equations, stream.Equation{Pattern: core.Ident(r), Expr: call})

	lookup := func(int) *node.Node { return callee }

	transform.InlineWhenNeeded(caller, st, reg, lookup)

	require.Len(t, caller.Equations, 1)
	assert.Equal(t, stream.KindNodeApplication, caller.Equations[0].Expr.Kind)
}
