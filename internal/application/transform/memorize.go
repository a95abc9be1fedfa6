// Package transform implements the middle-end passes that turn a
// dependency-annotated node into a schedulable, memory-allocated one:
// normal-form, memorize, and inline-when-needed, in that order.
package transform

import (
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

// Memorize walks every equation of n and allocates a memory cell for each
// fby (a Buffer) and each sub-node call (a called-node slot), recording
// the slot id directly on the NodeApplication expression so later passes
// (inlining, code generation) can find it without re-walking the tree.
func Memorize(n *node.Node, st *symboltable.Table) {
	for i := range n.Equations {
		memorizeExpr(n.Equations[i].Expr, n.Memory, st)
	}
}

func memorizeExpr(e *stream.Expr, mem *node.Memory, st *symboltable.Table) {
	switch e.Kind {
	case stream.KindExpression:
		memorizeKindChildren(e, mem, st)

	case stream.KindFollowedBy:
		memorizeExpr(e.FollowedByConstant, mem, st)
		name := st.GetName(e.FollowedByID)
		typ := st.GetType(e.FollowedByID)
		mem.AddBuffer(e.FollowedByID, name, typ, e.FollowedByConstant)

	case stream.KindNodeApplication:
		for _, in := range e.NodeApplicationInputs {
			memorizeExpr(in.Expr, mem, st)
		}
		calleeName := st.GetName(e.NodeApplicationCalledNode)
		memoryID := st.InsertFreshSignal("mem_"+calleeName, symboltable.Memory, nil)
		mem.AddCalledNode(memoryID, e.NodeApplicationCalledNode)
		e.NodeApplicationMemoryID = &memoryID

	case stream.KindRisingEdge, stream.KindSomeEvent:
		memorizeExpr(e.Inner, mem, st)

	case stream.KindNoneEvent:
		// no sub-expressions, nothing to memorize
	}
}

// memorizeKindChildren recurses into a pure-expression wrapper (match arm
// guards and results included, via Kind.Children) and into match arm local
// statement bodies, which Kind.Children deliberately does not walk on its
// own (see expr.Kind.Children's doc).
func memorizeKindChildren(e *stream.Expr, mem *node.Memory, st *symboltable.Table) {
	k := &e.Expression
	for _, child := range k.Children() {
		memorizeExpr(child, mem, st)
	}
	if k.Tag == expr.TagMatch {
		for _, arm := range k.MatchArms {
			for _, stmt := range arm.Body {
				memorizeExpr(stmt.Expr, mem, st)
			}
		}
	}
}
