package compilation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/domain/compilation"
)

func TestNewArtifactRecordsStarted(t *testing.T) {
	a, err := compilation.New("art-1", "sha256:deadbeef")
	require.NoError(t, err)
	require.Len(t, a.Events(), 1)
	assert.Equal(t, compilation.EventTypeCompilationStarted, a.Events()[0].EventType())
	assert.Equal(t, compilation.StatusCompiling, a.Status())
}

func TestArtifactSucceedRecordsNodes(t *testing.T) {
	a, err := compilation.New("art-2", "sha256:abc")
	require.NoError(t, err)
	a.ClearEvents()

	nodes := []compilation.CompiledNode{{ID: 1, Name: "counter", Schedule: []int{1, 2}}}
	a.Succeed(nodes)

	assert.Equal(t, compilation.StatusSucceeded, a.Status())
	assert.Equal(t, nodes, a.Nodes())
	require.Len(t, a.Events(), 1)
	assert.Equal(t, compilation.EventTypeCompilationSucceeded, a.Events()[0].EventType())
}

func TestArtifactFailRecordsReason(t *testing.T) {
	a, err := compilation.New("art-3", "sha256:abc")
	require.NoError(t, err)
	a.ClearEvents()

	a.Fail("counter", errors.New("causality cycle"))

	assert.Equal(t, compilation.StatusFailed, a.Status())
	require.Len(t, a.Events(), 1)
	failed, ok := a.Events()[0].(compilation.Failed)
	require.True(t, ok)
	assert.Equal(t, "counter", failed.NodeName)
}

func TestNewArtifactRejectsEmptyID(t *testing.T) {
	_, err := compilation.New("", "sha")
	assert.Error(t, err)
}
