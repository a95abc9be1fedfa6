package transform

import (
	"errors"

	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

// NodeLookup resolves a node id to its (already normal-formed) definition,
// used to fetch a callee's equations and memory when a call site must be
// inlined.
type NodeLookup func(nodeID int) *node.Node

// InlineWhenNeeded repeatedly inlines call sites that would otherwise
// create a causality loop the scheduler can't see through (the callee is
// an opaque box to the per-equation dependency graph, so a loop that only
// exists once you look inside it is invisible until it's inlined away),
// until a full pass leaves the equation list unchanged.
func InlineWhenNeeded(n *node.Node, st *symboltable.Table, reg *node.Registry, lookup NodeLookup) {
	current := n.Equations
	for {
		next, changed := inlinePass(current, n, reg, st, lookup)
		if !changed {
			n.Equations = next
			return
		}
		current = next
	}
}

func inlinePass(equations []stream.Equation, n *node.Node, reg *node.Registry, st *symboltable.Table, lookup NodeLookup) ([]stream.Equation, bool) {
	var out []stream.Equation
	changed := false

	for _, eq := range equations {
		if eq.Expr.Kind != stream.KindNodeApplication {
			out = append(out, eq)
			continue
		}

		callerOutputs := eq.Pattern.Identifiers()
		calleeOutputs := st.GetNodeOutputs(eq.Expr.NodeApplicationCalledNode)
		loops, _ := hasShiftedCausalityLoop(eq.Expr, callerOutputs, calleeOutputs, reg)
		if !loops {
			out = append(out, eq)
			continue
		}

		callee := lookup(eq.Expr.NodeApplicationCalledNode)
		if callee == nil {
			// The callee's body isn't available to inline (an unresolved
			// forward reference). Leave the call as-is; the scheduler will
			// report a causality error if the loop is real rather than an
			// artifact of not having looked inside the callee yet.
			out = append(out, eq)
			continue
		}

		inlined, retrieved := instantiateCall(eq.Expr, eq.Pattern, callee, st)
		if eq.Expr.NodeApplicationMemoryID != nil {
			n.Memory.RemoveCalledNode(*eq.Expr.NodeApplicationMemoryID)
		}
		n.Memory.Combine(retrieved)

		out = append(out, inlined...)
		changed = true
	}

	return out, changed
}

// hasShiftedCausalityLoop checks, for one call site in isolation, whether
// treating the callee as opaque would hide an instantaneous cycle. It
// builds a graph targeting the caller's own pattern-bound ids (so that a
// loop closed purely by the caller reusing the same signal name is
// visible), using the callee's reduced graph only to decide, via its
// internal output ids, which of the call's inputs instantaneously reach
// which of its outputs. callerOutputs and calleeOutputs are positionally
// paired. A cycle here means some output feeds back, at zero delay, into
// one of its own transitive inputs through the surrounding equations.
func hasShiftedCausalityLoop(call *stream.Expr, callerOutputs, calleeOutputs []int, reg *node.Registry) (bool, []int) {
	rg := reg.Get(call.NodeApplicationCalledNode)
	if rg == nil {
		return false, nil
	}

	g := depgraph.New()
	for _, out := range callerOutputs {
		g.AddVertex(out)
	}
	for i, calleeOut := range calleeOutputs {
		if i >= len(callerOutputs) {
			break
		}
		callerOut := callerOutputs[i]
		for _, in := range call.NodeApplicationInputs {
			label, ok := rg.EdgeWeight(calleeOut, in.FormalInputID)
			if !ok || !label.IsInstantaneous() {
				continue
			}
			for _, dep := range in.Expr.Dependencies.Instantaneous() {
				g.AddEdge(dep.Signal, callerOut, depgraph.Zero())
			}
		}
	}

	_, err := g.Toposort()
	if err == nil {
		return false, nil
	}
	var cycleErr *depgraph.CycleError
	if errors.As(err, &cycleErr) {
		return true, cycleErr.Cycle
	}
	return true, nil
}

// instantiateCall builds the caller-local equations and memory that result
// from inlining one call site: the callee's formal inputs are renamed to
// the caller's actual arguments, its outputs are renamed to the caller's
// result pattern, and every other signal and memory slot it owns is given
// a fresh caller-local id so it can't collide with anything already in
// scope.
func instantiateCall(call *stream.Expr, resultPattern core.Pattern, callee *node.Node, st *symboltable.Table) ([]stream.Equation, *node.Memory) {
	ctx := make(context)

	for _, in := range call.NodeApplicationInputs {
		actualID := in.Expr.Expression.IdentifierID
		ctx[in.FormalInputID] = renameTo(actualID)
	}

	resultIDs := resultPattern.Identifiers()
	for i, outID := range callee.Outputs {
		if i < len(resultIDs) {
			ctx[outID] = renameTo(resultIDs[i])
		}
	}

	for _, eq := range callee.Equations {
		for _, id := range eq.Identifiers() {
			freshenLocal(ctx, st, id)
		}
	}
	for slotID := range callee.Memory.CalledNodes {
		freshenLocal(ctx, st, slotID)
	}

	renaming := renamingOf(ctx)
	newEquations := make([]stream.Equation, 0, len(callee.Equations))
	for _, eq := range callee.Equations {
		newPattern := eq.Pattern
		newPattern.Rename(renaming)
		newEquations = append(newEquations, stream.Equation{
			Pattern: newPattern,
			Expr:    substitute(eq.Expr, ctx),
			Loc:     eq.Loc,
		})
	}

	retrieved := node.NewMemory()
	for id, buf := range callee.Memory.Buffers {
		newID := id
		if b, ok := ctx[id]; ok && !b.isExpr {
			newID = b.id
		}
		buf.ID = newID
		buf.Initial = substitute(buf.Initial, ctx)
		retrieved.AddBuffer(newID, buf.Name, buf.Typing, buf.Initial)
	}
	for slot, calledNode := range callee.Memory.CalledNodes {
		newSlot := slot
		if b, ok := ctx[slot]; ok && !b.isExpr {
			newSlot = b.id
		}
		retrieved.AddCalledNode(newSlot, calledNode)
	}

	return newEquations, retrieved
}

func freshenLocal(ctx context, st *symboltable.Table, id int) {
	if _, already := ctx[id]; already {
		return
	}
	name := st.GetName(id)
	scope := st.GetScope(id)
	freshName := st.NewIdentifier(name)
	freshID := st.InsertFreshSignal(freshName, scope, st.GetType(id))
	ctx[id] = renameTo(freshID)
}
