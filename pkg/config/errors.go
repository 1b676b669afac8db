package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField indicates a required configuration field is empty.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidValue indicates a configuration field has an unsupported value.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrNoCredentials indicates neither OpenAI nor OpenRouter credentials were supplied.
	ErrNoCredentials = errors.New("no model provider credentials configured")
)

// ValidationError wraps a configuration validation failure with the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: field %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}
