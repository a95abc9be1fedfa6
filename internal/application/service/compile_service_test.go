package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/application/service"
	"github.com/duragraph/duragraph/internal/domain/compilation"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

// counterNode builds a self-contained node with one fby-based counter
// pair: prev = 0 fby out, out = prev + 1, exercising Memorize/NormalForm/Schedule
// without needing any node application at all.
func counterNode(st *symboltable.Table) *node.Node {
	out := st.InsertFreshSignal("out", symboltable.Output, "int")
	prev := st.InsertFreshSignal("prev", symboltable.Local, "int")

	n := node.New(1, "counter", nil, []int{out})
	st.SetNodeSignature(n.ID, n.Inputs, n.Outputs)

	plusOne := stream.NewExpression(expr.NewBinOp[*stream.Expr](expr.Add,
		stream.NewIdentifier(prev, core.Builtin()),
		stream.NewConstant(expr.Int(1), core.Builtin()),
	), core.Builtin())
	fby := stream.NewFollowedBy(out, stream.NewConstant(expr.Int(0), core.Builtin()), core.Builtin())

	n.Equations = []stream.Equation{
		{Pattern: core.Ident(out), Expr: plusOne},
		{Pattern: core.Ident(prev), Expr: fby},
	}
	return n
}

func TestCompileServiceSucceedsOnAcyclicNode(t *testing.T) {
	st := symboltable.New()
	n := counterNode(st)

	svc := service.NewCompileService(nil, nil)
	artifact, err := svc.Compile(context.Background(), "artifact-1", service.Unit{
		SourceHash: "sha256:abc",
		Nodes:      []*node.Node{n},
		Symbols:    st,
	})
	require.NoError(t, err)
	assert.Equal(t, compilation.StatusSucceeded, artifact.Status())
	require.Len(t, artifact.Nodes(), 1)
	assert.Equal(t, "counter", artifact.Nodes()[0].Name)
	assert.NotEmpty(t, n.Schedule)
}

func TestCompileServiceFailsOnCausalityCycle(t *testing.T) {
	st := symboltable.New()
	x := st.InsertFreshSignal("x", symboltable.Local, "int")
	y := st.InsertFreshSignal("y", symboltable.Output, "int")

	n := node.New(1, "cyclic", nil, []int{y})
	st.SetNodeSignature(n.ID, n.Inputs, n.Outputs)
	n.Equations = []stream.Equation{
		{Pattern: core.Ident(y), Expr: stream.NewIdentifier(x, core.Builtin())},
		{Pattern: core.Ident(x), Expr: stream.NewIdentifier(y, core.Builtin())},
	}

	svc := service.NewCompileService(nil, nil)
	artifact, err := svc.Compile(context.Background(), "artifact-2", service.Unit{
		SourceHash: "sha256:def",
		Nodes:      []*node.Node{n},
		Symbols:    st,
	})
	require.Error(t, err)
	assert.Equal(t, compilation.StatusFailed, artifact.Status())
}

func TestTopologicalOrderPlacesCalleeBeforeCaller(t *testing.T) {
	st := symboltable.New()
	callee := counterNode(st)
	callee.ID = 1

	callerOut := st.InsertFreshSignal("r", symboltable.Output, "int")
	caller := node.New(2, "wrapper", nil, []int{callerOut})
	call := stream.NewNodeApplication(callee.ID, nil, core.Builtin())
	caller.Equations = []stream.Equation{{Pattern: core.Ident(callerOut), Expr: call}}

	ordered := service.TopologicalOrder([]*node.Node{caller, callee})
	require.Len(t, ordered, 2)
	assert.Equal(t, callee.ID, ordered[0].ID)
	assert.Equal(t, caller.ID, ordered[1].ID)
}
