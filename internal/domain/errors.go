package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input: wrong sheet/key length, unknown symbols, bad fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotConfigured is returned when a category has no answer key yet.
	ErrNotConfigured = errors.New("answer key not configured")
	// ErrParticipantNotFound is returned when no participant matches the requested identity.
	ErrParticipantNotFound = errors.New("participant not found")
)

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotConfiguredError reports the category whose key is still the placeholder.
type NotConfiguredError struct {
	Category Category
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("answer key for %s not configured", e.Category)
}

func (e *NotConfiguredError) Is(target error) bool {
	return target == ErrNotConfigured
}
