package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"
)

func TestCausalityErrorWrapsSentinel(t *testing.T) {
	err := apperrors.CausalityError([]int{3, 7})
	assert.True(t, apperrors.Is(err, apperrors.ErrCausality))
	assert.Equal(t, []int{3, 7}, err.Details["cycle"])
}

func TestNotNormalisedWrapsSentinel(t *testing.T) {
	err := apperrors.NotNormalised("equation for signal 9")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotNormalised))
}

func TestMissingSymbolWrapsSentinel(t *testing.T) {
	err := apperrors.MissingSymbol(42)
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingSymbol))
	assert.Equal(t, 42, err.Details["signal_id"])
}
