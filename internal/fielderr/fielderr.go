// Package fielderr carries user-facing validation failures tied to a form
// field.
package fielderr

import "errors"

// ValidationError is recovered locally and shown next to the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// New creates a ValidationError.
func New(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// As extracts a ValidationError from err's chain.
func As(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
