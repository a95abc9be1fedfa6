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

func TestNormalFormHoistsNestedNodeApplicationArgument(t *testing.T) {
	st := symboltable.New()
	reg := node.NewRegistry()

	callee := st.InsertFreshSignal("helper", symboltable.Local, nil)
	st.SetNodeSignature(callee, []int{st.InsertFreshSignal("a", symboltable.Input, "int")}, []int{st.InsertFreshSignal("o", symboltable.Output, "int")})

	a := st.InsertFreshSignal("a", symboltable.Input, "int")
	b := st.InsertFreshSignal("b", symboltable.Input, "int")
	out := st.InsertFreshSignal("out", symboltable.Output, "int")

	sum := stream.NewExpression(expr.NewBinOp[*stream.Expr](expr.Add,
		stream.NewIdentifier(a, core.Builtin()), stream.NewIdentifier(b, core.Builtin())), core.Builtin())
	transform.AnnotateDependencies(sum)

	app := stream.NewNodeApplication(callee, []stream.NodeInput{{FormalInputID: 0, Expr: sum}}, core.Builtin())
	transform.AnnotateDependencies(app)

	n := node.New(1, "caller", []int{a, b}, []int{out})
	n.Equations = append(n.Equations, stream.Equation{Pattern: core.Ident(out), Expr: app})

	transform.NormalFormNode(n, st, reg)

	require.Len(t, n.Equations, 2)
	hoisted := n.Equations[0]
	call := n.Equations[1]

	assert.Equal(t, stream.KindExpression, hoisted.Expr.Kind)
	assert.Equal(t, stream.KindNodeApplication, call.Expr.Kind)
	assert.Equal(t, expr.TagIdentifier, call.Expr.NodeApplicationInputs[0].Expr.Expression.Tag)
	assert.Equal(t, hoisted.Pattern.ID, call.Expr.NodeApplicationInputs[0].Expr.Expression.IdentifierID)
}

func TestNormalFormLowersRisingEdgeToFbyExpansion(t *testing.T) {
	st := symboltable.New()
	reg := node.NewRegistry()

	s := st.InsertFreshSignal("s", symboltable.Input, "bool")
	out := st.InsertFreshSignal("out", symboltable.Output, "bool")

	rising := stream.NewRisingEdge(stream.NewIdentifier(s, core.Builtin()), core.Builtin())
	transform.AnnotateDependencies(rising)

	n := node.New(1, "edge", []int{s}, []int{out})
	n.Equations = append(n.Equations, stream.Equation{Pattern: core.Ident(out), Expr: rising})

	transform.NormalFormNode(n, st, reg)

	eq := n.Equations[len(n.Equations)-1]
	assert.True(t, eq.Expr.NoRisingEdge())
	assert.Equal(t, expr.TagBinOp, eq.Expr.Expression.Tag)
	assert.Equal(t, expr.And, eq.Expr.Expression.BinOpOp)
}

func TestIntoSignalCallLeavesBareIdentifierUnchanged(t *testing.T) {
	st := symboltable.New()
	reg := node.NewRegistry()
	id := st.InsertFreshSignal("x", symboltable.Local, "int")

	n := node.New(1, "passthrough", []int{id}, []int{id})
	ident := stream.NewIdentifier(id, core.Builtin())
	transform.AnnotateDependencies(ident)
	n.Equations = append(n.Equations, stream.Equation{Pattern: core.Ident(id), Expr: ident})

	before := len(n.Equations)
	transform.NormalFormNode(n, st, reg)
	assert.Equal(t, before, len(n.Equations))
}
