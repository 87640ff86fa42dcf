package features

import (
	"errors"
	"fmt"
)

var (
	ErrMissing    = errors.New("missing")
	ErrUnparsable = errors.New("unparsable")
)

// ValidationError names the form field that could not be used.
type ValidationError struct {
	Field  string
	Reason error
	Value  string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field %s: %v value %q", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("field %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
