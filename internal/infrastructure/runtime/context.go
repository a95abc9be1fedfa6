// Package runtime is the reactive kernel that drives one compiled node's
// equations across the stream of events a running service receives: the
// event union, timer union, per-input handler, and debounced combined
// reaction described for the runtime synthesizer. It is deliberately
// Temporal-agnostic — runtime/translator and runtime/bridge wrap a Kernel
// to host it as a Temporal workflow, but the kernel itself has no
// dependency on the workflow SDK, so it can also run in-process, as the
// tests do.
package runtime

import "github.com/duragraph/duragraph/internal/domain/ir/expr"

// Context holds the current value of every observable signal a reaction
// can read or write — inputs, public outputs, and whichever intermediates
// the translator elected to expose — plus, per signal, whether it changed
// during the reaction currently in progress. Reset clears every freshness
// flag; Set marks a signal fresh only when its value actually changed,
// which is what lets a per-input handler skip a sub-node step whose guard
// inputs didn't move.
type Context struct {
	values map[int]expr.Constant
	fresh  map[int]bool
	// buffers holds one fby cell's remembered value per FollowedByID,
	// read during a reaction (the value from the previous reaction) and
	// advanced once the reaction finishes computing the buffered
	// identifier's new value.
	buffers map[int]expr.Constant
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		values:  make(map[int]expr.Constant),
		fresh:   make(map[int]bool),
		buffers: make(map[int]expr.Constant),
	}
}

// Reset clears every freshness flag, the first step of every reaction
// (handler or debounced combined reaction alike). Values themselves are
// untouched: a context always remembers the last value of every signal it
// has ever seen.
func (c *Context) Reset() {
	for id := range c.fresh {
		c.fresh[id] = false
	}
}

// Set writes v as id's new value, marking id fresh iff v differs from
// whatever id already held (or id has never been set before).
func (c *Context) Set(id int, v expr.Constant) {
	old, had := c.values[id]
	c.values[id] = v
	if !had || !old.Equal(v) {
		c.fresh[id] = true
	}
}

// Get returns id's current value and whether id has ever been set.
func (c *Context) Get(id int) (expr.Constant, bool) {
	v, ok := c.values[id]
	return v, ok
}

// IsNew reports whether id changed during the reaction currently in
// progress.
func (c *Context) IsNew(id int) bool {
	return c.fresh[id]
}

// AnyNew reports whether any of ids changed during the current reaction,
// used to gate a sub-node step call on its guard inputs.
func (c *Context) AnyNew(ids []int) bool {
	for _, id := range ids {
		if c.fresh[id] {
			return true
		}
	}
	return false
}

// Buffer returns an fby cell's remembered value, seeding it with initial
// on first read.
func (c *Context) Buffer(id int, initial expr.Constant) expr.Constant {
	if v, ok := c.buffers[id]; ok {
		return v
	}
	c.buffers[id] = initial
	return initial
}

// AdvanceBuffer sets the fby cell id's remembered value to v, to be read
// back as "last reaction's value" starting with the next reaction.
func (c *Context) AdvanceBuffer(id int, v expr.Constant) {
	c.buffers[id] = v
}
