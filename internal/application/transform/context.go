package transform

import (
	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
)

// binding is either a plain renaming (the signal now has a different id) or
// a wholesale replacement (every read of the signal becomes a copy of an
// arbitrary expression). Only renamings are ever valid for a pattern's own
// bound id, a followed-by's delayed target, or a node application's memory
// slot: those three positions bind or address a cell, they don't read a
// value, so splicing an expression in for them has no meaning.
type binding struct {
	isExpr bool
	id     int
	expr   *stream.Expr
}

func renameTo(id int) binding           { return binding{id: id} }
func replaceWith(e *stream.Expr) binding { return binding{isExpr: true, expr: e} }

// context maps old signal ids to their replacement while inlining a call
// site's equations into the caller.
type context map[int]binding

func filterContext(ctx context, excluded map[int]bool) context {
	out := make(context, len(ctx))
	for id, b := range ctx {
		if !excluded[id] {
			out[id] = b
		}
	}
	return out
}

func renamingOf(ctx context) map[int]int {
	out := make(map[int]int, len(ctx))
	for id, b := range ctx {
		if !b.isExpr {
			out[id] = b.id
		}
	}
	return out
}

func renameDeps(deps depgraph.Set, ctx context) depgraph.Set {
	out := make(depgraph.Set, len(deps))
	for i, d := range deps {
		if b, ok := ctx[d.Signal]; ok && !b.isExpr {
			d.Signal = b.id
		}
		out[i] = d
	}
	return out
}

// substitute rewrites e through ctx, in place where possible. It returns
// the (possibly different) expression that should replace e at its call
// site: a bare identifier substitution can splice in an arbitrary
// expression, which no in-place mutation of e could represent.
func substitute(e *stream.Expr, ctx context) *stream.Expr {
	switch e.Kind {
	case stream.KindExpression:
		return substituteKind(e, ctx)

	case stream.KindFollowedBy:
		if b, ok := ctx[e.FollowedByID]; ok {
			if b.isExpr {
				panic("transform: cannot replace a followed-by's delayed target by an expression")
			}
			e.FollowedByID = b.id
		}
		e.FollowedByConstant = substitute(e.FollowedByConstant, ctx)
		e.Dependencies = depgraph.Merge(
			depgraph.Set{{Signal: e.FollowedByID, Label: depgraph.Weight(1)}},
			e.FollowedByConstant.Dependencies,
		)
		return e

	case stream.KindNodeApplication:
		if e.NodeApplicationMemoryID != nil {
			if b, ok := ctx[*e.NodeApplicationMemoryID]; ok {
				if b.isExpr {
					panic("transform: cannot replace a node application's memory slot by an expression")
				}
				newID := b.id
				e.NodeApplicationMemoryID = &newID
			}
		}
		for i := range e.NodeApplicationInputs {
			e.NodeApplicationInputs[i].Expr = substitute(e.NodeApplicationInputs[i].Expr, ctx)
		}
		e.Dependencies = renameDeps(e.Dependencies, ctx)
		return e

	case stream.KindRisingEdge:
		panic("transform: encountered a rising edge after normal-form lowering")

	case stream.KindSomeEvent:
		e.Inner = substitute(e.Inner, ctx)
		e.Dependencies = e.Inner.Dependencies
		return e

	case stream.KindNoneEvent:
		return e

	default:
		return e
	}
}

func substituteKind(e *stream.Expr, ctx context) *stream.Expr {
	k := &e.Expression

	if k.Tag == expr.TagIdentifier {
		if b, ok := ctx[k.IdentifierID]; ok {
			if b.isExpr {
				return b.expr
			}
			k.IdentifierID = b.id
			e.Dependencies = depgraph.Set{{Signal: b.id, Label: depgraph.Zero()}}
		}
		return e
	}

	if k.Tag == expr.TagMatch {
		return substituteMatch(e, ctx)
	}

	substituteKindChildren(k, ctx)
	e.Dependencies = annotateKind(k)
	return e
}

func substituteMatch(e *stream.Expr, ctx context) *stream.Expr {
	k := &e.Expression
	k.MatchExpr = substitute(k.MatchExpr, ctx)

	for i := range k.MatchArms {
		arm := &k.MatchArms[i]
		bound := make(map[int]bool)
		for _, id := range arm.Pattern.Identifiers() {
			bound[id] = true
		}
		localCtx := filterContext(ctx, bound)

		if arm.Guard != nil {
			newGuard := substitute(*arm.Guard, localCtx)
			arm.Guard = &newGuard
		}
		for j := range arm.Body {
			arm.Body[j].Pattern.Rename(renamingOf(localCtx))
			arm.Body[j].Expr = substitute(arm.Body[j].Expr, localCtx)
		}
		arm.Result = substitute(arm.Result, localCtx)
	}

	e.Dependencies = annotateKind(k)
	return e
}

// substituteKindChildren mutates k's sub-expression fields in place,
// variant by variant: Kind.Children() returns copies, which is enough for
// read-only recursion but not for writing a substitution back.
func substituteKindChildren(k *expr.Kind[*stream.Expr], ctx context) {
	switch k.Tag {
	case expr.TagUnOp:
		k.UnOpExpr = substitute(k.UnOpExpr, ctx)
	case expr.TagBinOp:
		k.BinOpLft = substitute(k.BinOpLft, ctx)
		k.BinOpRgt = substitute(k.BinOpRgt, ctx)
	case expr.TagIfThenElse:
		k.IfCnd = substitute(k.IfCnd, ctx)
		k.IfThn = substitute(k.IfThn, ctx)
		k.IfEls = substitute(k.IfEls, ctx)
	case expr.TagApplication:
		k.AppFun = substitute(k.AppFun, ctx)
		for i := range k.AppInputs {
			k.AppInputs[i] = substitute(k.AppInputs[i], ctx)
		}
	case expr.TagAbstraction:
		bound := make(map[int]bool, len(k.AbsInputs))
		for _, id := range k.AbsInputs {
			bound[id] = true
		}
		k.AbsExpr = substitute(k.AbsExpr, filterContext(ctx, bound))
	case expr.TagStructure:
		for i := range k.StructFields {
			k.StructFields[i].Expr = substitute(k.StructFields[i].Expr, ctx)
		}
	case expr.TagArray:
		for i := range k.ArrayElements {
			k.ArrayElements[i] = substitute(k.ArrayElements[i], ctx)
		}
	case expr.TagTuple:
		for i := range k.TupleElements {
			k.TupleElements[i] = substitute(k.TupleElements[i], ctx)
		}
	case expr.TagFieldAccess:
		k.FieldAccessExpr = substitute(k.FieldAccessExpr, ctx)
	case expr.TagTupleElementAccess:
		k.TupleAccessExpr = substitute(k.TupleAccessExpr, ctx)
	case expr.TagMap:
		k.MapExpr = substitute(k.MapExpr, ctx)
		k.MapFun = substitute(k.MapFun, ctx)
	case expr.TagFold:
		k.FoldArray = substitute(k.FoldArray, ctx)
		k.FoldInit = substitute(k.FoldInit, ctx)
		k.FoldFun = substitute(k.FoldFun, ctx)
	case expr.TagSort:
		k.SortExpr = substitute(k.SortExpr, ctx)
		k.SortFun = substitute(k.SortFun, ctx)
	case expr.TagZip:
		for i := range k.ZipArrays {
			k.ZipArrays[i] = substitute(k.ZipArrays[i], ctx)
		}
	}
}
