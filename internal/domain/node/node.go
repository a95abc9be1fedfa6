// Package node defines a compiled node/component: its signature, its
// equations, and the memory cells its fby buffers and sub-node calls need
// between reactions.
package node

import (
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
)

// Node is one node/component definition in a compilation unit.
type Node struct {
	ID      int
	Name    string
	Inputs  []int // ordered signal ids, Input scope
	Outputs []int // ordered signal ids, Output scope

	Equations []stream.Equation
	Memory    *Memory

	// Schedule is the equation evaluation order produced by the scheduler
	// pass; nil until scheduling has run.
	Schedule []int
}

// New creates an empty node with the given signature.
func New(id int, name string, inputs, outputs []int) *Node {
	return &Node{
		ID:      id,
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Memory:  NewMemory(),
	}
}

// EquationFor returns the equation binding signal id, and whether one
// exists. A node's inputs never have a defining equation; every other
// signal the node mentions must have exactly one.
func (n *Node) EquationFor(id int) (stream.Equation, bool) {
	for _, eq := range n.Equations {
		for _, bound := range eq.Identifiers() {
			if bound == id {
				return eq, true
			}
		}
	}
	return stream.Equation{}, false
}

// Constant re-exports expr.Constant so callers that only import node don't
// also need to import expr for trivial literal construction (e.g. the
// rising-edge lowering's synthetic `false` constant).
type Constant = expr.Constant
