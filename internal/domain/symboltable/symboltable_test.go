package symboltable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duragraph/duragraph/internal/domain/symboltable"
)

func TestInsertFreshSignalDedupesNames(t *testing.T) {
	st := symboltable.New()
	a := st.InsertFreshSignal("x", symboltable.Local, "int")
	b := st.InsertFreshSignal("x", symboltable.Local, "int")

	assert.NotEqual(t, a, b)
	assert.Equal(t, "x", st.GetName(a))
	assert.Equal(t, "x_1", st.GetName(b))
}

func TestNodeSignatureRoundTrip(t *testing.T) {
	st := symboltable.New()
	node := st.InsertFreshSignal("my_node", symboltable.Local, nil)
	in1 := st.InsertFreshSignal("s", symboltable.Input, "bool")
	out1 := st.InsertFreshSignal("o", symboltable.Output, "int")

	st.SetNodeSignature(node, []int{in1}, []int{out1})

	assert.Equal(t, []int{in1}, st.GetNodeInputs(node))
	assert.Equal(t, []int{out1}, st.GetNodeOutputs(node))
}

func TestScopeDefaultsAndExists(t *testing.T) {
	st := symboltable.New()
	assert.False(t, st.Exists(42))

	id := st.InsertFreshSignal("y", symboltable.Memory, nil)
	assert.True(t, st.Exists(id))
	assert.Equal(t, symboltable.Memory, st.GetScope(id))
}
