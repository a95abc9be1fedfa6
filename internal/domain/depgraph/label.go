// Package depgraph implements the dependency label algebra and the
// labelled signal graph used by causality analysis and scheduling.
package depgraph

import "fmt"

// Label is the delay along one dependency edge: "this many reaction cycles
// behind". Weight(0) is an instantaneous dependency; anything higher is a
// delayed one and never induces a causality constraint within a reaction.
type Label struct {
	Weight int
}

// Zero is the additive identity, an instantaneous dependency.
func Zero() Label { return Label{Weight: 0} }

// Weight builds a label with the given delay.
func Weight(k int) Label { return Label{Weight: k} }

// Add sums two labels.
func (l Label) Add(o Label) Label { return Label{Weight: l.Weight + o.Weight} }

// IsInstantaneous reports whether the label is Weight(0).
func (l Label) IsInstantaneous() bool { return l.Weight == 0 }

// Less orders labels by delay, used to pick the effective (minimum) label
// among parallel edges.
func (l Label) Less(o Label) bool { return l.Weight < o.Weight }

func (l Label) String() string { return fmt.Sprintf("Weight(%d)", l.Weight) }

// Dependency is one (signal, delay) pair in a dependency set.
type Dependency struct {
	Signal int
	Label  Label
}

// Set is a dependency multiset: "this expression reads Signal with the
// given delay", possibly several times over with different delays.
type Set []Dependency

// Merge returns the multiset union of several sets.
func Merge(sets ...Set) Set {
	var total int
	for _, s := range sets {
		total += len(s)
	}
	out := make(Set, 0, total)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// Shift returns a copy of s with every label bumped by delta (used to
// carry a call argument's dependencies through the callee's reduced-graph
// label for that input).
func (s Set) Shift(delta Label) Set {
	out := make(Set, len(s))
	for i, d := range s {
		out[i] = Dependency{Signal: d.Signal, Label: d.Label.Add(delta)}
	}
	return out
}

// Instantaneous keeps only the Weight(0) edges, the ones relevant to
// causality.
func (s Set) Instantaneous() Set {
	out := make(Set, 0, len(s))
	for _, d := range s {
		if d.Label.IsInstantaneous() {
			out = append(out, d)
		}
	}
	return out
}

// FilterOut drops every dependency whose signal is in excluded. Used under
// match arms to remove the pattern's locally-bound identifiers before the
// dependencies propagate to the enclosing equation.
func (s Set) FilterOut(excluded map[int]bool) Set {
	out := make(Set, 0, len(s))
	for _, d := range s {
		if !excluded[d.Signal] {
			out = append(out, d)
		}
	}
	return out
}

// Signals returns the distinct signal ids mentioned in s.
func (s Set) Signals() []int {
	seen := make(map[int]bool, len(s))
	out := make([]int, 0, len(s))
	for _, d := range s {
		if !seen[d.Signal] {
			seen[d.Signal] = true
			out = append(out, d.Signal)
		}
	}
	return out
}
