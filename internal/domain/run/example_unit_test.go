package run_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	// Import your actual package path:
	// "github.com/duragraph/duragraph/internal/domain/run"
)

// Example unit test for domain logic
// Unit tests should:
// - Test pure business logic
// - Not require external dependencies (DB, NATS, etc.)
// - Use mocks for dependencies
// - Be fast (milliseconds)
// - Run with: go test ./... -short

func TestRun_Creation(t *testing.T) {
	// This is a template example
	// Replace with actual domain logic tests

	t.Run("creates run with valid parameters", func(t *testing.T) {
		// Arrange
		threadID := "thread-123"
		assistantID := "assistant-456"
		input := map[string]interface{}{"message": "test"}

		// Act
		// run, err := run.NewRun(threadID, assistantID, input)

		// Assert
		// require.NoError(t, err, "Creating run should not fail")
		// assert.NotEmpty(t, run.ID(), "Run ID should be generated")
		// assert.Equal(t, "pending", run.Status(), "Initial status should be pending")
		// assert.Equal(t, threadID, run.ThreadID(), "Thread ID should match")

		t.Skip("TODO: Implement when Run domain logic exists")
	})

	t.Run("rejects run with empty thread ID", func(t *testing.T) {
		// Arrange
		threadID := ""
		assistantID := "assistant-456"
		input := map[string]interface{}{"message": "test"}

		// Act
		// _, err := run.NewRun(threadID, assistantID, input)

		// Assert
		// require.Error(t, err, "Should reject empty thread ID")
		// assert.Contains(t, err.Error(), "thread_id", "Error should mention thread_id")

		t.Skip("TODO: Implement when Run domain logic exists")
	})
}

func TestRun_StateTransitions(t *testing.T) {
	t.Run("transitions from pending to in_progress", func(t *testing.T) {
		// Arrange
		// run := createTestRun(t)
		// assert.Equal(t, "pending", run.Status())

		// Act
		// err := run.Start()

		// Assert
		// require.NoError(t, err)
		// assert.Equal(t, "in_progress", run.Status())
		// assert.NotNil(t, run.StartedAt())

		t.Skip("TODO: Implement when Run domain logic exists")
	})

	t.Run("transitions from in_progress to completed", func(t *testing.T) {
		// Arrange
		// run := createTestRun(t)
		// run.Start()

		// Act
		// output := map[string]interface{}{"result": "success"}
		// err := run.Complete(output)

		// Assert
		// require.NoError(t, err)
		// assert.Equal(t, "completed", run.Status())
		// assert.NotNil(t, run.CompletedAt())
		// assert.Equal(t, output, run.Output())

		t.Skip("TODO: Implement when Run domain logic exists")
	})

	t.Run("rejects invalid state transition", func(t *testing.T) {
		// Arrange
		// run := createTestRun(t)
		// run.Start()
		// run.Complete(nil)

		// Act - try to start already completed run
		// err := run.Start()

		// Assert
		// require.Error(t, err, "Should reject invalid state transition")
		// assert.Contains(t, err.Error(), "invalid state", "Error should mention invalid state")

		t.Skip("TODO: Implement when Run domain logic exists")
	})
}

func TestRun_EventEmission(t *testing.T) {
	t.Run("emits RunCreated event on creation", func(t *testing.T) {
		// Arrange & Act
		// run, _ := run.NewRun("thread-123", "assistant-456", nil)

		// Assert
		// events := run.GetUncommittedEvents()
		// require.Len(t, events, 1, "Should emit exactly one event")
		// assert.Equal(t, "RunCreated", events[0].Type())

		t.Skip("TODO: Implement when event sourcing is added")
	})

	t.Run("emits RunStarted event on start", func(t *testing.T) {
		// Arrange
		// run := createTestRun(t)
		// run.ClearEvents() // Clear creation events

		// Act
		// run.Start()

		// Assert
		// events := run.GetUncommittedEvents()
		// require.Len(t, events, 1)
		// assert.Equal(t, "RunStarted", events[0].Type())

		t.Skip("TODO: Implement when event sourcing is added")
	})
}

// Helper functions

func createTestRun(t *testing.T) interface{} {
	t.Helper()
	// return run.NewRun("thread-123", "assistant-456", map[string]interface{}{"test": true})
	return nil // Placeholder
}

func assertTimeRecent(t *testing.T, timestamp *time.Time) {
	t.Helper()
	if timestamp == nil {
		t.Fatal("Timestamp should not be nil")
	}
	diff := time.Since(*timestamp)
	assert.Less(t, diff, 5*time.Second, "Timestamp should be recent (within 5 seconds)")
}
