package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
)

// leaf is the simplest possible instantiation of E, used to exercise Kind
// without pulling in the stream package.
type leaf struct{ id int }

func TestChildrenBinOp(t *testing.T) {
	k := expr.NewBinOp[leaf](expr.Add, leaf{1}, leaf{2})
	assert.Equal(t, []leaf{{1}, {2}}, k.Children())
}

func TestChildrenConstantHasNoChildren(t *testing.T) {
	k := expr.NewConstant[leaf](expr.Int(42))
	assert.Empty(t, k.Children())
}

func TestChildrenApplicationIncludesFunAndInputs(t *testing.T) {
	k := expr.NewApplication[leaf](leaf{0}, []leaf{{1}, {2}, {3}})
	assert.Equal(t, []leaf{{0}, {1}, {2}, {3}}, k.Children())
}

func TestChildrenMatchIncludesGuardAndResultNotBody(t *testing.T) {
	guard := leaf{99}
	arm := expr.Arm[leaf]{
		Pattern: core.Ident(5),
		Guard:   &guard,
		Body:    []core.Stmt[leaf]{{Pattern: core.Ident(6), Expr: leaf{100}}},
		Result:  leaf{7},
	}
	k := expr.NewMatch[leaf](leaf{0}, []expr.Arm[leaf]{arm})
	children := k.Children()
	assert.Equal(t, []leaf{{0}, {99}, {7}}, children)
}

func TestChildrenFoldOrdersArrayInitFun(t *testing.T) {
	k := expr.NewFold[leaf](leaf{1}, leaf{2}, leaf{3})
	assert.Equal(t, []leaf{{1}, {2}, {3}}, k.Children())
}
