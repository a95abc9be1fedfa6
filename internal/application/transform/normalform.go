package transform

import (
	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

// NormalFormNode rewrites every equation of n into normal form: every node
// application ends up with bare-identifier arguments and sits at an
// equation's own root, and every rising edge has been lowered to its
// fby-based expansion. Equations produced by hoisting are inserted ahead
// of the equation whose evaluation first needed them, preserving a valid
// (if not yet scheduled) evaluation order.
func NormalFormNode(n *node.Node, st *symboltable.Table, reg *node.Registry) {
	var rewritten []stream.Equation
	for _, eq := range n.Equations {
		rewritten = append(rewritten, normalFormStmt(eq, st, reg)...)
	}
	n.Equations = rewritten
}

func normalFormStmt(stmt stream.Equation, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	e := stmt.Expr
	if e.Kind == stream.KindNodeApplication {
		hoisted := hoistNodeApplicationInputs(e, st, reg)
		e.Dependencies = nodeApplicationDependencies(e, st.GetNodeOutputs(e.NodeApplicationCalledNode), reg)
		return append(hoisted, stmt)
	}
	hoisted := normalFormExpr(e, st, reg)
	return append(hoisted, stmt)
}

// hoistNodeApplicationInputs rewrites every actual argument of a node
// application into a bare identifier, in place, returning the statements
// that now compute those identifiers.
func hoistNodeApplicationInputs(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	var hoisted []stream.Equation
	for i, in := range e.NodeApplicationInputs {
		newExpr, stmts := intoSignalCall(in.Expr, st, reg)
		hoisted = append(hoisted, stmts...)
		e.NodeApplicationInputs[i].Expr = newExpr
	}
	return hoisted
}

// nodeApplicationDependencies computes the dependency set a node
// application contributes to the equation binding it, by propagating
// each output's reduced-graph row across the (now normal-form) inputs. If
// the callee's reduced graph isn't known yet (a forward or recursive
// reference inline-when-needed hasn't resolved), it conservatively falls
// back to the union of every input's own dependencies.
func nodeApplicationDependencies(e *stream.Expr, outputs []int, reg *node.Registry) depgraph.Set {
	rg := reg.Get(e.NodeApplicationCalledNode)
	if rg == nil {
		var sets []depgraph.Set
		for _, in := range e.NodeApplicationInputs {
			sets = append(sets, in.Expr.Dependencies)
		}
		return depgraph.Merge(sets...)
	}
	var sets []depgraph.Set
	for _, out := range outputs {
		for _, in := range e.NodeApplicationInputs {
			label, ok := rg.EdgeWeight(out, in.FormalInputID)
			if !ok {
				continue
			}
			sets = append(sets, in.Expr.Dependencies.Shift(label))
		}
	}
	return depgraph.Merge(sets...)
}

// intoSignalCall normal-forms e and, unless it is already a bare
// identifier, hoists it into a fresh equation, replacing the returned
// expression by an identifier reference to that equation's result.
func intoSignalCall(e *stream.Expr, st *symboltable.Table, reg *node.Registry) (*stream.Expr, []stream.Equation) {
	if e.Kind == stream.KindExpression && e.Expression.Tag == expr.TagIdentifier {
		return e, nil
	}

	hoisted := normalFormExpr(e, st, reg)

	freshID := st.InsertFreshSignal(st.FreshIdentifier("", "x"), symboltable.Local, e.Typing)
	defStmt := stream.Equation{Pattern: core.Ident(freshID), Expr: e, Loc: e.Loc}

	result := stream.NewIdentifier(freshID, e.Loc)
	result.Dependencies = depgraph.Set{{Signal: freshID, Label: depgraph.Zero()}}

	return result, append(hoisted, defStmt)
}

// normalFormExpr normal-forms e in place and returns the statements that
// must be evaluated before whichever statement currently holds e.
func normalFormExpr(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	switch e.Kind {
	case stream.KindExpression:
		return normalFormKind(e, st, reg)

	case stream.KindFollowedBy:
		hoisted := normalFormExpr(e.FollowedByConstant, st, reg)
		e.Dependencies = depgraph.Merge(
			depgraph.Set{{Signal: e.FollowedByID, Label: depgraph.Weight(1)}},
			e.FollowedByConstant.Dependencies,
		)
		return hoisted

	case stream.KindNodeApplication:
		return liftNestedNodeApplication(e, st, reg)

	case stream.KindRisingEdge:
		return lowerRisingEdge(e, st, reg)

	case stream.KindSomeEvent:
		hoisted := normalFormExpr(e.Inner, st, reg)
		e.Dependencies = e.Inner.Dependencies
		return hoisted

	case stream.KindNoneEvent:
		return nil

	default:
		return nil
	}
}

// liftNestedNodeApplication handles a node application found anywhere
// other than an equation's own root: it hoists the call into its own
// fresh equation and rewrites e in place into a bare identifier reference
// to that equation, so the caller holding e's address transparently sees
// the replacement.
func liftNestedNodeApplication(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	hoisted := hoistNodeApplicationInputs(e, st, reg)

	calleeName := st.GetName(e.NodeApplicationCalledNode)
	freshID := st.InsertFreshSignal(st.FreshIdentifier("comp_app", calleeName), symboltable.Local, nil)

	outputs := st.GetNodeOutputs(e.NodeApplicationCalledNode)

	call := &stream.Expr{
		Kind:                      stream.KindNodeApplication,
		NodeApplicationMemoryID:   e.NodeApplicationMemoryID,
		NodeApplicationCalledNode: e.NodeApplicationCalledNode,
		NodeApplicationInputs:     e.NodeApplicationInputs,
		Loc:                       e.Loc,
	}
	call.Dependencies = nodeApplicationDependencies(call, outputs, reg)

	callStmt := stream.Equation{Pattern: core.Ident(freshID), Expr: call, Loc: e.Loc}

	*e = stream.Expr{
		Kind:       stream.KindExpression,
		Expression: expr.NewIdentifier[*stream.Expr](freshID),
		Loc:        e.Loc,
		Dependencies: depgraph.Set{{Signal: freshID, Label: depgraph.Zero()}},
	}

	return append(hoisted, callStmt)
}

// lowerRisingEdge rewrites `rising_edge(inner)` into `inner and not mem`
// where mem := false fby inner, matching the only way to observe "was
// false or absent last reaction" without a dedicated edge primitive in the
// runtime kernel.
func lowerRisingEdge(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	id, hoisted := intoSignalCall(e.Inner, st, reg)

	falseConst := stream.NewConstant(expr.Bool(false), e.Loc)
	mem := stream.NewFollowedBy(id.Expression.IdentifierID, falseConst, e.Loc)
	mem.Dependencies = depgraph.Set{{Signal: id.Expression.IdentifierID, Label: depgraph.Weight(1)}}

	notMem := stream.NewExpression(expr.NewUnOp[*stream.Expr](expr.Not, mem), e.Loc)
	notMem.Dependencies = mem.Dependencies

	*e = stream.Expr{
		Kind:       stream.KindExpression,
		Expression: expr.NewBinOp[*stream.Expr](expr.And, id, notMem),
		Loc:        e.Loc,
		Dependencies: depgraph.Merge(
			depgraph.Set{{Signal: id.Expression.IdentifierID, Label: depgraph.Zero()}},
			mem.Dependencies,
		),
	}

	return hoisted
}

func normalFormKind(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	k := &e.Expression
	if k.Tag == expr.TagMatch {
		return normalFormMatch(e, st, reg)
	}

	var hoisted []stream.Equation
	children := k.Children()
	for _, c := range children {
		hoisted = append(hoisted, normalFormExpr(c, st, reg)...)
	}
	e.Dependencies = annotateKind(k)
	return hoisted
}

// normalFormMatch normal-forms a match's scrutinee in the enclosing
// statement's stream, but keeps every arm's hoisted statements local to
// that arm's body: a guard or result computed inside one arm must not run
// unconditionally just because normal-form needed somewhere to put it.
func normalFormMatch(e *stream.Expr, st *symboltable.Table, reg *node.Registry) []stream.Equation {
	k := &e.Expression
	hoisted := normalFormExpr(k.MatchExpr, st, reg)

	for i := range k.MatchArms {
		arm := &k.MatchArms[i]
		var body []core.Stmt[*stream.Expr]

		if arm.Guard != nil {
			body = append(body, normalFormExpr(*arm.Guard, st, reg)...)
		}
		body = append(body, arm.Body...)
		body = append(body, normalFormExpr(arm.Result, st, reg)...)
		arm.Body = body
	}

	e.Dependencies = annotateKind(k)
	return hoisted
}
