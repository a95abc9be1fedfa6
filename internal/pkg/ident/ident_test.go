package ident_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duragraph/duragraph/internal/pkg/ident"
)

func TestNewIdentifierFirstUseUnchanged(t *testing.T) {
	c := ident.New()
	assert.Equal(t, "x", c.NewIdentifier("x"))
}

func TestNewIdentifierCollisionSuffixed(t *testing.T) {
	c := ident.New()
	first := c.NewIdentifier("x")
	second := c.NewIdentifier("x")
	assert.Equal(t, "x", first)
	assert.Equal(t, "x_1", second)
	assert.NotEqual(t, first, second)
}

func TestFreshIdentifierWithPrefix(t *testing.T) {
	c := ident.New()
	name := c.FreshIdentifier("comp_app", "my_node")
	assert.Equal(t, "comp_app_my_node", name)

	name2 := c.FreshIdentifier("comp_app", "my_node")
	assert.Equal(t, "comp_app_my_node_1", name2)
}

func TestFreshIdentifierNeverCollides(t *testing.T) {
	c := ident.New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := c.FreshIdentifier("", "mem")
		assert.False(t, seen[name], "identifier %q reused", name)
		seen[name] = true
	}
}
