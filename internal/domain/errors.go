package domain

import (
	"errors"
	"fmt"
)

// ValidationError signals malformed input at the write boundary
// (out-of-range score, unknown dimension, missing required field).
// It is surfaced synchronously to the caller and never reaches the
// aggregation pipeline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrUnauthorized signals a request without an authenticated contributor.
// Authentication itself is owned by the platform layer; the engine only
// rejects writes that arrive without an identity.
var ErrUnauthorized = errors.New("contributor not authenticated")

// ErrConflict signals a duplicate (contributor, company, dimension) vote when
// the caller explicitly requested strict creation semantics. The default
// behavior is update-in-place, which never produces this error.
var ErrConflict = errors.New("vote already exists for contributor, company and dimension")

// ErrNotFound signals a missing entity (company score, promise, review).
var ErrNotFound = errors.New("not found")

// RecomputationError wraps a storage or dependency failure during score
// aggregation. It is logged and retried internally; it is never surfaced to
// the writer whose submission triggered the recomputation.
type RecomputationError struct {
	CompanyID string
	Err       error
}

func (e *RecomputationError) Error() string {
	return fmt.Sprintf("recomputation failed for company %s: %v", e.CompanyID, e.Err)
}

func (e *RecomputationError) Unwrap() error {
	return e.Err
}
