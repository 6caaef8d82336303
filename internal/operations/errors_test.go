package operations_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ecomlens/internal/operations"
)

func TestOperationError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errType   operations.ErrorType
		retryable bool
	}{
		{
			name:    "validation",
			err:     operations.NewValidationError("quality", "missing input"),
			errType: operations.ErrorTypeValidation,
		},
		{
			name:    "dependency",
			err:     operations.NewDependencyError("explore", "no collection"),
			errType: operations.ErrorTypeDependency,
		},
		{
			name:      "execution",
			err:       operations.NewExecutionError("visualize", errors.New("render failed")),
			errType:   operations.ErrorTypeExecution,
			retryable: true,
		},
		{
			name:      "timeout",
			err:       operations.NewTimeoutError("report", errors.New("deadline")),
			errType:   operations.ErrorTypeTimeout,
			retryable: true,
		},
		{
			name:    "cancellation",
			err:     operations.NewCancellationError("codegen"),
			errType: operations.ErrorTypeCancellation,
		},
		{
			name:    "fatal",
			err:     operations.NewFatalError("quality", errors.New("data directory missing")),
			errType: operations.ErrorTypeFatal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, operations.GetErrorType(tt.err))
			assert.Equal(t, tt.retryable, operations.IsRetryable(tt.err))
		})
	}
}

func TestOperationError_MessageIncludesStage(t *testing.T) {
	err := operations.NewValidationError("quality", "missing input")
	assert.Equal(t, "validation error in stage quality: missing input", err.Error())

	noStage := operations.NewValidationError("", "operation ID is required")
	assert.Equal(t, "validation error: operation ID is required", noStage.Error())
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := operations.NewExecutionError("visualize", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("outer: %w", err), cause)
}

func TestWrapError(t *testing.T) {
	plain := errors.New("boom")
	wrapped := operations.WrapError("explore", plain)
	assert.Equal(t, operations.ErrorTypeExecution, wrapped.Type)
	assert.Equal(t, "explore", wrapped.Stage)
	assert.True(t, wrapped.Retryable)

	// Already classified errors pass through unchanged.
	fatal := operations.NewFatalError("quality", plain)
	assert.Same(t, fatal, operations.WrapError("other", fatal))
	assert.True(t, operations.IsFatal(fatal))
	assert.False(t, operations.IsFatal(plain))
}
