package node

import "github.com/duragraph/duragraph/internal/domain/ir/stream"

// Buffer is one fby memory cell: it remembers the last value of the
// buffered signal, initialised to Initial on the node's first reaction.
// Initial is a full expression rather than a bare literal. The normal-form
// pass normal-forms it in place; no pass checks that it is a constant.
type Buffer struct {
	ID      int // the fby's buffered signal id, used as the cell's key
	Name    string
	Typing  interface{}
	Initial *stream.Expr
}

// Memory is the set of stateful cells a node needs across reactions: one
// Buffer per fby and one memory slot per sub-node call (the callee's own
// Memory, addressed indirectly by slot id so that inlining can delete a
// slot without renumbering its neighbours).
type Memory struct {
	Buffers     map[int]Buffer
	CalledNodes map[int]int // memory slot id -> called node id
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		Buffers:     make(map[int]Buffer),
		CalledNodes: make(map[int]int),
	}
}

// AddBuffer registers a new fby cell. Re-adding the same id overwrites the
// previous entry, which only ever happens with an identical initial value
// (the memorize pass visits each fby exactly once).
func (m *Memory) AddBuffer(id int, name string, typing interface{}, initial *stream.Expr) {
	m.Buffers[id] = Buffer{ID: id, Name: name, Typing: typing, Initial: initial}
}

// AddCalledNode registers a memory slot for a sub-node call.
func (m *Memory) AddCalledNode(memoryID, calledNodeID int) {
	m.CalledNodes[memoryID] = calledNodeID
}

// RemoveCalledNode deletes a memory slot, used when inline-when-needed
// resolves a call site by inlining it: the slot that held the callee's
// memory as one opaque unit is gone, replaced by Combine pulling its
// buffers and nested slots directly into the caller.
func (m *Memory) RemoveCalledNode(memoryID int) {
	delete(m.CalledNodes, memoryID)
}

// Combine merges another node's memory into m, used after inlining a call:
// the callee's buffers and nested call slots become the caller's own,
// addressed by the same ids (the identifier creator guarantees they don't
// collide with anything already in m).
func (m *Memory) Combine(other *Memory) {
	for id, b := range other.Buffers {
		m.Buffers[id] = b
	}
	for slot, calledNode := range other.CalledNodes {
		m.CalledNodes[slot] = calledNode
	}
}
