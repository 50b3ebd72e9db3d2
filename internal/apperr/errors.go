// Package apperr defines the error taxonomy shared by repositories,
// services, and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested resource id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the caller is authenticated but the policy denies the operation.
	ErrUnauthorized = errors.New("not authorized")
	// ErrInvalidCredentials is returned on login mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrValidation is the kind of every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a missing or malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Required builds a ValidationError for a missing field.
func Required(field string) error {
	return &ValidationError{Field: field, Msg: "is required"}
}
