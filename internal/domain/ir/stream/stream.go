// Package stream defines the stream-expression IR: the layer on top of the
// pure expr.Kind that adds the three stream-only constructs (delay,
// sub-node application and the event-arrival primitives) and the
// dependency annotation every expression carries once the dependency pass
// has run.
//
// Expr is a recursive, mutable, pointer-based tree rather than an
// immutable value tree: middle-end passes annotate and rewrite expressions
// in place (dependencies, normal-form hoisting, inlining), which matches
// how the teacher's own aggregates mutate state in place and emit events
// describing the mutation, rather than rebuilding a new value each time.
package stream

import (
	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
)

// Kind discriminates the shape of a stream Expr.
type Kind int

const (
	// KindExpression wraps a pure, pointwise expr.Kind[*Expr]. The
	// pointwise operators themselves may have stream-expression children
	// (an fby nested inside a BinOp's operand, for instance): purity is a
	// property of the outermost operator, not of the whole subtree.
	KindExpression Kind = iota
	// KindFollowedBy is "constant fby id": the constant on the first
	// reaction, then the previous reaction's value of id.
	KindFollowedBy
	// KindNodeApplication is a call to another compiled node/component.
	KindNodeApplication
	// KindRisingEdge detects e becoming true this reaction having been
	// false (or absent) last reaction.
	KindRisingEdge
	// KindSomeEvent wraps an optional/event-typed sub-expression as
	// present this reaction.
	KindSomeEvent
	// KindNoneEvent is the absent-event constant.
	KindNoneEvent
)

// NodeInput is one actual argument of a node application, paired with the
// formal input signal id it binds on the callee's side.
type NodeInput struct {
	FormalInputID int
	Expr          *Expr
}

// Expr is the stream-expression node. Exactly one group of fields is
// meaningful, selected by Kind.
type Expr struct {
	Kind Kind

	// KindExpression
	Expression expr.Kind[*Expr]

	// KindFollowedBy
	FollowedByID       int
	FollowedByConstant *Expr

	// KindNodeApplication
	NodeApplicationMemoryID   *int // nil until memorize has run
	NodeApplicationCalledNode int
	NodeApplicationInputs     []NodeInput

	// KindRisingEdge, KindSomeEvent
	Inner *Expr

	Typing     interface{}
	Loc        core.Location
	Dependencies depgraph.Set
}

// Equation is a top-level (or match-arm-local) statement binding a pattern
// to a stream expression.
type Equation = core.Stmt[*Expr]

func NewExpression(k expr.Kind[*Expr], loc core.Location) *Expr {
	return &Expr{Kind: KindExpression, Expression: k, Loc: loc}
}

func NewIdentifier(id int, loc core.Location) *Expr {
	return NewExpression(expr.NewIdentifier[*Expr](id), loc)
}

func NewConstant(c expr.Constant, loc core.Location) *Expr {
	return NewExpression(expr.NewConstant[*Expr](c), loc)
}

func NewFollowedBy(id int, constant *Expr, loc core.Location) *Expr {
	return &Expr{Kind: KindFollowedBy, FollowedByID: id, FollowedByConstant: constant, Loc: loc}
}

func NewNodeApplication(calledNode int, inputs []NodeInput, loc core.Location) *Expr {
	return &Expr{
		Kind:                      KindNodeApplication,
		NodeApplicationCalledNode: calledNode,
		NodeApplicationInputs:     inputs,
		Loc:                       loc,
	}
}

func NewRisingEdge(inner *Expr, loc core.Location) *Expr {
	return &Expr{Kind: KindRisingEdge, Inner: inner, Loc: loc}
}

func NewSomeEvent(inner *Expr, loc core.Location) *Expr {
	return &Expr{Kind: KindSomeEvent, Inner: inner, Loc: loc}
}

func NewNoneEvent(loc core.Location) *Expr {
	return &Expr{Kind: KindNoneEvent, Loc: loc}
}

// children returns every direct stream-expression child of e, used by the
// *_form predicates below to recurse uniformly over both stream-only and
// nested-pointwise structure.
func (e *Expr) children() []*Expr {
	switch e.Kind {
	case KindExpression:
		return e.Expression.Children()
	case KindFollowedBy:
		return []*Expr{e.FollowedByConstant}
	case KindNodeApplication:
		out := make([]*Expr, 0, len(e.NodeApplicationInputs))
		for _, in := range e.NodeApplicationInputs {
			out = append(out, in.Expr)
		}
		return out
	case KindRisingEdge, KindSomeEvent:
		return []*Expr{e.Inner}
	default:
		return nil
	}
}

// IsNormalForm reports whether e is already in normal form: every node
// application has only bare-identifier arguments and sits directly at an
// equation's root, never nested inside another expression.
func (e *Expr) IsNormalForm() bool {
	return e.isNormalForm(true)
}

func (e *Expr) isNormalForm(atRoot bool) bool {
	if e.Kind == KindNodeApplication {
		if !atRoot {
			return false
		}
		for _, in := range e.NodeApplicationInputs {
			if in.Expr.Kind != KindExpression || in.Expr.Expression.Tag != expr.TagIdentifier {
				return false
			}
		}
		return true
	}
	for _, c := range e.children() {
		if !c.isNormalForm(false) {
			return false
		}
	}
	return true
}

// NoNodeApplication reports whether e contains no sub-node calls at all.
func (e *Expr) NoNodeApplication() bool {
	if e.Kind == KindNodeApplication {
		return false
	}
	for _, c := range e.children() {
		if !c.NoNodeApplication() {
			return false
		}
	}
	return true
}

// NoRisingEdge reports whether e contains no rising-edge primitive
// (expected to hold once the normal-form pass has lowered every rising
// edge to its fby-based expansion).
func (e *Expr) NoRisingEdge() bool {
	if e.Kind == KindRisingEdge {
		return false
	}
	for _, c := range e.children() {
		if !c.NoRisingEdge() {
			return false
		}
	}
	return true
}
