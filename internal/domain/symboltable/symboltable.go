// Package symboltable holds the dense, append-only mapping from signal id
// to its display name, scope, and (for node ids) its input/output
// signature.
package symboltable

import (
	"encoding/json"
	"sync"

	"github.com/duragraph/duragraph/internal/pkg/ident"
)

// Scope classifies how a signal id may be used. Only Local and Memory
// names may be renamed by middle-end passes; Output names are part of the
// public ABI and are preserved verbatim.
type Scope int

const (
	Input Scope = iota
	Output
	Local
	Memory
)

func (s Scope) String() string {
	switch s {
	case Input:
		return "input"
	case Output:
		return "output"
	case Local:
		return "local"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

// Type is left opaque to the core: type inference is an external
// collaborator (spec.md §1). The core only ever copies and compares type
// values, it never inspects them.
type Type interface{}

type entry struct {
	name    string
	scope   Scope
	typ     Type
	inputs  []int // ordered, node ids only
	outputs []int // ordered, node ids only
}

// Table is the mutable, per-compilation symbol table. Entries are never
// removed; ids are dense and monotonically increasing.
type Table struct {
	mu      sync.Mutex
	entries map[int]*entry
	nextID  int
	creator *ident.Creator
}

// New creates an empty table.
func New() *Table {
	return &Table{
		entries: make(map[int]*entry),
		creator: ident.New(),
	}
}

// InsertFreshSignal allocates a new dense id for name (deduplicated through
// the table's identifier creator) in the given scope, and returns the id.
func (t *Table) InsertFreshSignal(name string, scope Scope, typ Type) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	unique := t.creator.NewIdentifier(name)
	id := t.nextID
	t.nextID++
	t.entries[id] = &entry{name: unique, scope: scope, typ: typ}
	return id
}

// InsertSignal registers an id that already exists outside the table (e.g.
// ids assigned by an upstream name-resolution pass) with the given name,
// scope and type, without generating a new id.
func (t *Table) InsertSignal(id int, name string, scope Scope, typ Type) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[id] = &entry{name: name, scope: scope, typ: typ}
	if id >= t.nextID {
		t.nextID = id + 1
	}
}

// NewIdentifier mints a fresh display name derived from base without
// allocating a signal id for it (used by passes that need a name before
// they know the signal's scope/type).
func (t *Table) NewIdentifier(base string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.creator.NewIdentifier(base)
}

// FreshIdentifier mints a fresh display name from a prefix/seed pair.
func (t *Table) FreshIdentifier(prefix, seed string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.creator.FreshIdentifier(prefix, seed)
}

// GetName returns the display name of id.
func (t *Table) GetName(id int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return ""
	}
	return e.name
}

// GetScope returns the scope of id.
func (t *Table) GetScope(id int) Scope {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return Local
	}
	return e.scope
}

// GetType returns the type of id, or nil if unset.
func (t *Table) GetType(id int) Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return e.typ
}

// Exists reports whether id has an entry.
func (t *Table) Exists(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// SetNodeSignature records the ordered input/output signal ids of a node
// id so that callers can look up its signature by id alone.
func (t *Table) SetNodeSignature(nodeID int, inputs, outputs []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[nodeID]
	if !ok {
		e = &entry{}
		t.entries[nodeID] = e
	}
	e.inputs = append([]int(nil), inputs...)
	e.outputs = append([]int(nil), outputs...)
}

// GetNodeInputs returns the ordered input signal ids of node id nodeID.
func (t *Table) GetNodeInputs(nodeID int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[nodeID]
	if !ok {
		return nil
	}
	return append([]int(nil), e.inputs...)
}

// GetNodeOutputs returns the ordered output signal ids of node id nodeID.
func (t *Table) GetNodeOutputs(nodeID int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[nodeID]
	if !ok {
		return nil
	}
	return append([]int(nil), e.outputs...)
}

// wireEntry is the JSON projection of one entry, keyed by signal id in the
// surrounding Table's wire form. Unexported entry fields never cross the
// wire directly since a compilation client (the §B HTTP boundary) only
// ever needs to send/receive a table's final id assignments, not its
// internal locking.
type wireEntry struct {
	Name    string `json:"name"`
	Scope   Scope  `json:"scope"`
	Type    Type   `json:"type,omitempty"`
	Inputs  []int  `json:"inputs,omitempty"`
	Outputs []int  `json:"outputs,omitempty"`
}

type wireTable struct {
	Entries map[int]wireEntry `json:"entries"`
	NextID  int               `json:"next_id"`
}

// MarshalJSON renders the table's current entries, letting a compilation
// unit travel whole across the POST /compilations boundary.
func (t *Table) MarshalJSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := wireTable{Entries: make(map[int]wireEntry, len(t.entries)), NextID: t.nextID}
	for id, e := range t.entries {
		w.Entries[id] = wireEntry{Name: e.name, Scope: e.scope, Type: e.typ, Inputs: e.inputs, Outputs: e.outputs}
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds a table from its wire form, reseeding the
// identifier creator with every name already in use so that later passes
// minting fresh names never collide with a name the client sent in.
func (t *Table) UnmarshalJSON(data []byte) error {
	var w wireTable
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	entries := make(map[int]*entry, len(w.Entries))
	names := make([]string, 0, len(w.Entries))
	for id, we := range w.Entries {
		entries[id] = &entry{name: we.Name, scope: we.Scope, typ: we.Type, inputs: we.Inputs, outputs: we.Outputs}
		names = append(names, we.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	t.nextID = w.NextID
	t.creator = ident.NewSeeded(names)
	return nil
}
