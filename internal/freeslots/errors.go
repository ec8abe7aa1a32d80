package freeslots

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is wrapped by every ValidationError.
	ErrInvalidRequest = errors.New("invalid slot request")

	// ErrNaiveInstant is returned when a time value carries no zone or offset.
	ErrNaiveInstant = errors.New("instant has no time zone")
)

// ValidationError describes a rejected Request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
