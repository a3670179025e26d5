package article

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrNotFound is returned when an article does not exist or was soft deleted.
	ErrNotFound = errors.New("article: not found")

	// ErrValidation marks input rejected before it reaches storage.
	ErrValidation = errors.New("article: validation failed")

	// ErrSlugExhausted is returned when no free slug was found within the attempt limit.
	ErrSlugExhausted = errors.New("article: could not find a free slug")
)

// ValidationError carries field level messages for a rejected input.
type ValidationError struct {
	Fields validation.Errors
}

// NewValidationError wraps err, keeping field details when err is a validation.Errors.
func NewValidationError(err error) *ValidationError {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{Fields: validation.Errors{"_": err}}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Fields.Error())
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Details flattens the field errors into messages keyed by field name.
func (e *ValidationError) Details() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for field, err := range e.Fields {
		if err == nil {
			continue
		}
		out[field] = err.Error()
	}
	return out
}
