// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.  Callers
// wrap them with context and test with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such as
// a seat that is already taken for the session.  Handlers translate it into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ValidationError describes input that breaks a domain rule.  Range is set
// for bounded numeric fields and Index points at the offending element of a
// list input.
type ValidationError struct {
	Field   string
	Message string
	Range   []int
	Index   *int
}

func (e *ValidationError) Error() string {
	if e.Index != nil {
		return fmt.Sprintf("%s[%d]: %s", e.Field, *e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func notFound(what string, id uint64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}
