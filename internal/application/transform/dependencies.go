package transform

import (
	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
)

// AnnotateNodeDependencies runs AnnotateDependencies over every equation in
// n, the first pass the compile pipeline runs over a node.
func AnnotateNodeDependencies(n *node.Node) {
	for i := range n.Equations {
		AnnotateDependencies(n.Equations[i].Expr)
	}
}

// AnnotateDependencies computes e's dependency set bottom-up and stores it
// on every sub-expression it visits, including inside match arm guards and
// bodies. It must run before Memorize and NormalForm, both of which assume
// every expression already carries an accurate Dependencies field.
func AnnotateDependencies(e *stream.Expr) depgraph.Set {
	switch e.Kind {
	case stream.KindExpression:
		e.Dependencies = annotateKind(&e.Expression)

	case stream.KindFollowedBy:
		// Nothing checks that the initial value is a closed-form literal
		// (see node.Buffer's doc comment); its own dependencies, if any,
		// are folded in rather than assumed empty.
		constDeps := AnnotateDependencies(e.FollowedByConstant)
		e.Dependencies = depgraph.Merge(
			depgraph.Set{{Signal: e.FollowedByID, Label: depgraph.Weight(1)}},
			constDeps,
		)

	case stream.KindNodeApplication:
		var sets []depgraph.Set
		for _, in := range e.NodeApplicationInputs {
			sets = append(sets, AnnotateDependencies(in.Expr))
		}
		// Conservative until NormalForm narrows this through the callee's
		// reduced graph: depends instantaneously on everything its inputs
		// depend on.
		e.Dependencies = depgraph.Merge(sets...)

	case stream.KindRisingEdge, stream.KindSomeEvent:
		e.Dependencies = AnnotateDependencies(e.Inner)

	case stream.KindNoneEvent:
		e.Dependencies = nil
	}
	return e.Dependencies
}

func annotateKind(k *expr.Kind[*stream.Expr]) depgraph.Set {
	switch k.Tag {
	case expr.TagIdentifier:
		return depgraph.Set{{Signal: k.IdentifierID, Label: depgraph.Zero()}}

	case expr.TagConstant:
		return nil

	case expr.TagMatch:
		sets := []depgraph.Set{AnnotateDependencies(k.MatchExpr)}
		for i := range k.MatchArms {
			sets = append(sets, annotateArm(&k.MatchArms[i]))
		}
		return depgraph.Merge(sets...)

	default:
		var sets []depgraph.Set
		for _, c := range k.Children() {
			sets = append(sets, AnnotateDependencies(c))
		}
		return depgraph.Merge(sets...)
	}
}

func annotateArm(arm *expr.Arm[*stream.Expr]) depgraph.Set {
	bound := make(map[int]bool)
	for _, id := range arm.Pattern.Identifiers() {
		bound[id] = true
	}

	var guardDeps depgraph.Set
	if arm.Guard != nil {
		guardDeps = AnnotateDependencies(*arm.Guard).FilterOut(bound)
	}

	for i := range arm.Body {
		for _, id := range arm.Body[i].Identifiers() {
			bound[id] = true
		}
		AnnotateDependencies(arm.Body[i].Expr)
	}

	resultDeps := AnnotateDependencies(arm.Result).FilterOut(bound)
	return depgraph.Merge(guardDeps, resultDeps)
}
