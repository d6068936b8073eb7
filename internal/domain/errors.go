package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the record does not exist or belongs to another owner.
	ErrNotFound = errors.New("not found")
	// ErrConstraint: referential integrity would be violated.
	ErrConstraint = errors.New("constraint violation")
	// ErrValidation: user input could not be accepted.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes rejected input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
