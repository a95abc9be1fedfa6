// Package ident mints fresh, globally-unique display names within a single
// compilation, mirroring the way internal/pkg/uuid mints fresh ids.
package ident

import (
	"fmt"
	"sync"
)

// Creator hands out display names that are guaranteed unique within its
// lifetime. It never forgets a name it has handed out, so repeated calls
// with the same seed keep producing fresh results.
type Creator struct {
	mu   sync.Mutex
	seen map[string]int
}

// New creates an empty Creator.
func New() *Creator {
	return &Creator{seen: make(map[string]int)}
}

// NewSeeded creates a Creator that treats every name in taken as already
// handed out, so a later NewIdentifier/FreshIdentifier call with a
// colliding base mints a suffixed name rather than repeating one a
// deserialized symbol table already uses.
func NewSeeded(taken []string) *Creator {
	c := &Creator{seen: make(map[string]int, len(taken))}
	for _, name := range taken {
		if _, ok := c.seen[name]; !ok {
			c.seen[name] = 0
		}
	}
	return c
}

// NewIdentifier returns a name derived from base that has not been returned
// before. If base itself is still free, it is returned unchanged.
func (c *Creator) NewIdentifier(base string) string {
	return c.reserve(base)
}

// FreshIdentifier builds a seed from prefix and suffix ("prefix_suffix", or
// just suffix if prefix is empty) and mints a fresh name from it. Used to
// name hoisted sub-expressions ("x_1", "x_2", ...) and synthetic memory
// slots ("mem_my_node", "mem_my_node_1", ...).
func (c *Creator) FreshIdentifier(prefix, suffix string) string {
	seed := suffix
	if prefix != "" {
		seed = prefix + "_" + suffix
	}
	return c.reserve(seed)
}

func (c *Creator) reserve(base string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if base == "" {
		base = "id"
	}

	n, taken := c.seen[base]
	if !taken {
		c.seen[base] = 0
		return base
	}

	for {
		n++
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, exists := c.seen[candidate]; !exists {
			c.seen[base] = n
			c.seen[candidate] = 0
			return candidate
		}
	}
}
