package operations

import (
	"errors"
	"fmt"
)

// ErrorType classifies operation errors for retry and reporting decisions.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// OperationError carries the stage, classification and retryability of a
// failure inside a run.
type OperationError struct {
	Type      ErrorType `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s error in stage %s: %s", e.Type, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(stage, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Stage:   stage,
		Message: message,
	}
}

// NewDependencyError creates a non-retryable dependency error.
func NewDependencyError(stage, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeDependency,
		Stage:   stage,
		Message: message,
	}
}

// NewExecutionError wraps a stage failure as retryable.
func NewExecutionError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:      ErrorTypeExecution,
		Stage:     stage,
		Message:   cause.Error(),
		Cause:     cause,
		Retryable: true,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:      ErrorTypeTimeout,
		Stage:     stage,
		Message:   "stage timed out",
		Cause:     cause,
		Retryable: true,
	}
}

// NewCancellationError creates a non-retryable cancellation error.
func NewCancellationError(stage string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Stage:   stage,
		Message: "operation cancelled",
	}
}

// NewFatalError creates a non-retryable fatal error that aborts the run.
func NewFatalError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Stage:   stage,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// IsRetryable reports whether the error allows another attempt.
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}

// IsFatal reports whether the error must abort the whole run.
func IsFatal(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type == ErrorTypeFatal
	}
	return false
}

// GetErrorType extracts the classification, defaulting to execution.
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// WrapError wraps an arbitrary error into an OperationError unless it
// already is one.
func WrapError(stage string, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	return NewExecutionError(stage, err)
}
