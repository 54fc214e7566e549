package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrNilAttempt is returned when SubmitAttempt receives no attempt.
	ErrNilAttempt = errors.New("attempt cannot be nil")

	// ErrInvalidWindow is returned when an analytics window is negative or too long.
	ErrInvalidWindow = errors.New("analytics window must be between 1 and 365 days")

	// ErrLockUnavailable is returned when the per-topic lock could not be taken
	// before the request context ended.
	ErrLockUnavailable = errors.New("topic is busy, retry later")
)

// LearningServiceError is a custom error type for learning service errors.
type LearningServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for LearningServiceError.
func (e *LearningServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("learning service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("learning service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LearningServiceError) Unwrap() error {
	return e.Err
}

// NewLearningServiceError creates a new LearningServiceError.
func NewLearningServiceError(operation, message string, err error) *LearningServiceError {
	return &LearningServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
