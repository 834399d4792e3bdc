package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that no record matches the given key.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned by the identity provider when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports caller input rejected before any external call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err originates from input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
