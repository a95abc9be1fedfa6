package stream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
)

func TestIsNormalFormBareIdentifier(t *testing.T) {
	e := stream.NewIdentifier(1, core.Builtin())
	assert.True(t, e.IsNormalForm())
}

func TestIsNormalFormNodeApplicationAtRootWithIdentifierArgs(t *testing.T) {
	arg := stream.NewIdentifier(2, core.Builtin())
	app := stream.NewNodeApplication(7, []stream.NodeInput{{FormalInputID: 0, Expr: arg}}, core.Builtin())
	assert.True(t, app.IsNormalForm())
}

func TestIsNormalFormRejectsNestedNodeApplication(t *testing.T) {
	inner := stream.NewNodeApplication(7, nil, core.Builtin())
	outer := stream.NewExpression(expr.NewUnOp[*stream.Expr](expr.Not, inner), core.Builtin())
	assert.False(t, outer.IsNormalForm())
}

func TestIsNormalFormRejectsNonIdentifierArgument(t *testing.T) {
	arg := stream.NewExpression(expr.NewConstant[*stream.Expr](expr.Int(1)), core.Builtin())
	app := stream.NewNodeApplication(7, []stream.NodeInput{{FormalInputID: 0, Expr: arg}}, core.Builtin())
	assert.False(t, app.IsNormalForm())
}

func TestNoNodeApplicationFalseWhenPresent(t *testing.T) {
	app := stream.NewNodeApplication(1, nil, core.Builtin())
	assert.False(t, app.NoNodeApplication())

	leaf := stream.NewIdentifier(1, core.Builtin())
	assert.True(t, leaf.NoNodeApplication())
}

func TestNoRisingEdgeDetectsNestedRisingEdge(t *testing.T) {
	inner := stream.NewIdentifier(1, core.Builtin())
	rising := stream.NewRisingEdge(inner, core.Builtin())
	wrapped := stream.NewExpression(expr.NewUnOp[*stream.Expr](expr.Not, rising), core.Builtin())
	assert.False(t, wrapped.NoRisingEdge())
	assert.True(t, inner.NoRisingEdge())
}
