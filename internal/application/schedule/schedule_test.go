package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/application/schedule"
	"github.com/duragraph/duragraph/internal/application/transform"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

func TestScheduleOrdersEquationsByInstantaneousDependency(t *testing.T) {
	st := symboltable.New()
	a := st.InsertFreshSignal("a", symboltable.Input, "int")
	b := st.InsertFreshSignal("b", symboltable.Local, "int")
	c := st.InsertFreshSignal("c", symboltable.Output, "int")

	n := node.New(1, "chain", []int{a}, []int{c})
	// declared out of dependency order on purpose
	cExpr := stream.NewIdentifier(b, core.Builtin())
	transform.AnnotateDependencies(cExpr)
	bExpr := stream.NewIdentifier(a, core.Builtin())
	transform.AnnotateDependencies(bExpr)
	n.Equations = []stream.Equation{
		{Pattern: core.Ident(c), Expr: cExpr},
		{Pattern: core.Ident(b), Expr: bExpr},
	}

	eqs, err := schedule.ScheduleEquations(n)
	require.NoError(t, err)
	require.Len(t, eqs, 2)
	assert.Equal(t, b, eqs[0].Pattern.ID)
	assert.Equal(t, c, eqs[1].Pattern.ID)
}

func TestScheduleReportsCausalityCycle(t *testing.T) {
	st := symboltable.New()
	x := st.InsertFreshSignal("x", symboltable.Local, "int")
	y := st.InsertFreshSignal("y", symboltable.Local, "int")

	n := node.New(1, "cyclic", nil, []int{x, y})
	xExpr := stream.NewExpression(expr.NewBinOp[*stream.Expr](expr.Add,
		stream.NewIdentifier(y, core.Builtin()), stream.NewConstant(expr.Int(1), core.Builtin())), core.Builtin())
	transform.AnnotateDependencies(xExpr)
	yExpr := stream.NewIdentifier(x, core.Builtin())
	transform.AnnotateDependencies(yExpr)
	n.Equations = []stream.Equation{
		{Pattern: core.Ident(x), Expr: xExpr},
		{Pattern: core.Ident(y), Expr: yExpr},
	}

	_, err := schedule.Schedule(n)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCausality))
}

func TestScheduleIgnoresDelayedSelfReference(t *testing.T) {
	st := symboltable.New()
	prev := st.InsertFreshSignal("prev", symboltable.Local, "int")
	out := st.InsertFreshSignal("out", symboltable.Output, "int")

	n := node.New(1, "counter", nil, []int{out})
	fby := stream.NewFollowedBy(prev, stream.NewConstant(expr.Int(0), core.Builtin()), core.Builtin())
	transform.AnnotateDependencies(fby)
	n.Equations = []stream.Equation{
		{Pattern: core.Ident(out), Expr: fby},
		{Pattern: core.Ident(prev), Expr: stream.NewIdentifier(out, core.Builtin())},
	}
	transform.AnnotateDependencies(n.Equations[1].Expr)

	_, err := schedule.Schedule(n)
	assert.NoError(t, err)
}
