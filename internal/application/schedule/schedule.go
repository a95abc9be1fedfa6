// Package schedule builds the per-node dependency graph and orders its
// equations so that every signal is computed only after everything it
// instantaneously depends on.
package schedule

import (
	"errors"
	"sort"

	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"
)

// BuildDependencyGraph turns a node's (already dependency-annotated)
// equations into a labelled signal graph: one edge per dependency, from
// the signal read to every signal the equation binds. Match-arm guard and
// body contributions are not handled specially here because
// transform.AnnotateDependencies already folds them into the enclosing
// expression's Dependencies before scheduling ever runs.
func BuildDependencyGraph(n *node.Node) *depgraph.Graph {
	g := depgraph.New()
	for _, id := range n.Inputs {
		g.AddVertex(id)
	}
	for _, eq := range n.Equations {
		bound := eq.Pattern.Identifiers()
		for _, b := range bound {
			g.AddVertex(b)
		}
		for _, dep := range eq.Expr.Dependencies {
			for _, b := range bound {
				g.AddEdge(dep.Signal, b, dep.Label)
			}
		}
	}
	return g
}

// Schedule orders every signal id in n by instantaneous dependency,
// recording and returning the order. A causality cycle is reported as an
// *errors.DomainError wrapping ErrCausality.
func Schedule(n *node.Node) ([]int, error) {
	g := BuildDependencyGraph(n)
	order, err := g.Toposort()
	if err != nil {
		var cycleErr *depgraph.CycleError
		if errors.As(err, &cycleErr) {
			return nil, apperrors.CausalityError(cycleErr.Cycle)
		}
		return nil, err
	}
	n.Schedule = order
	return order, nil
}

// ScheduleEquations runs Schedule and reorders n.Equations to match: each
// equation is placed at the earliest position any of its bound ids
// reaches in the signal order, which keeps equations binding several ids
// at once (tuple patterns) from being split apart.
func ScheduleEquations(n *node.Node) ([]stream.Equation, error) {
	order, err := Schedule(n)
	if err != nil {
		return nil, err
	}

	pos := make(map[int]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	eqs := append([]stream.Equation(nil), n.Equations...)
	sort.SliceStable(eqs, func(i, j int) bool {
		return earliestPosition(eqs[i], pos) < earliestPosition(eqs[j], pos)
	})

	n.Equations = eqs
	return eqs, nil
}

func earliestPosition(eq stream.Equation, pos map[int]int) int {
	best := -1
	for _, id := range eq.Pattern.Identifiers() {
		if p, ok := pos[id]; ok && (best == -1 || p < best) {
			best = p
		}
	}
	return best
}
