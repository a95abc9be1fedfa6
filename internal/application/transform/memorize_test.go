package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/application/transform"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

func TestMemorizeAllocatesBufferForFollowedBy(t *testing.T) {
	st := symboltable.New()
	prev := st.InsertFreshSignal("prev", symboltable.Local, "int")
	out := st.InsertFreshSignal("out", symboltable.Output, "int")

	n := node.New(1, "counter", nil, []int{out})
	n.Equations = append(n.Equations, stream.Equation{
		Pattern: core.Ident(out),
		Expr:    stream.NewFollowedBy(prev, stream.NewConstant(expr.Int(0), core.Builtin()), core.Builtin()),
	})

	transform.Memorize(n, st)

	buf, ok := n.Memory.Buffers[prev]
	require.True(t, ok)
	assert.Equal(t, "prev", buf.Name)
}

func TestMemorizeAllocatesSlotForNodeApplication(t *testing.T) {
	st := symboltable.New()
	callee := st.InsertFreshSignal("helper", symboltable.Local, nil)
	arg := st.InsertFreshSignal("a", symboltable.Input, "int")
	out := st.InsertFreshSignal("out", symboltable.Output, "int")

	n := node.New(1, "caller", []int{arg}, []int{out})
	app := stream.NewNodeApplication(callee, []stream.NodeInput{
		{FormalInputID: 0, Expr: stream.NewIdentifier(arg, core.Builtin())},
	}, core.Builtin())
	n.Equations = append(n.Equations, stream.Equation{Pattern: core.Ident(out), Expr: app})

	transform.Memorize(n, st)

	require.NotNil(t, app.NodeApplicationMemoryID)
	assert.Equal(t, callee, n.Memory.CalledNodes[*app.NodeApplicationMemoryID])
}

func TestMemorizeRecursesThroughPointwiseOperators(t *testing.T) {
	st := symboltable.New()
	prev := st.InsertFreshSignal("prev", symboltable.Local, "bool")
	out := st.InsertFreshSignal("out", symboltable.Output, "bool")

	fby := stream.NewFollowedBy(prev, stream.NewConstant(expr.Bool(false), core.Builtin()), core.Builtin())
	notExpr := stream.NewExpression(expr.NewUnOp[*stream.Expr](expr.Not, fby), core.Builtin())

	n := node.New(1, "edge", nil, []int{out})
	n.Equations = append(n.Equations, stream.Equation{Pattern: core.Ident(out), Expr: notExpr})

	transform.Memorize(n, st)

	_, ok := n.Memory.Buffers[prev]
	assert.True(t, ok)
}
