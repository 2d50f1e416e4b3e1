package custom_errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Aggregates(t *testing.T) {
	verr := &ValidationError{}
	assert.False(t, verr.HasError())
	assert.Equal(t, "", verr.Error())

	verr.Add(errors.New("targets must not be empty"))
	verr.Add(errors.New("unknown operation type"))

	assert.True(t, verr.HasError())
	assert.Contains(t, verr.Error(), "targets must not be empty")
	assert.Contains(t, verr.Error(), "unknown operation type")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("duration must be positive, got %d", -5)
	assert.True(t, err.HasError())
	assert.Equal(t, "duration must be positive, got -5", err.Error())
}

func TestNotFoundError_As(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewNotFoundError("operation", int64(7)))

	var nf *NotFoundError
	assert.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, "operation", nf.Entity)
	assert.Equal(t, "operation 7 not found", nf.Error())
}

func TestStateError_Message(t *testing.T) {
	err := NewStateError("operation", 3, "completed", "cancel")
	assert.Equal(t, "cannot cancel operation 3: status is completed", err.Error())
}
