package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports an operation rejected before any state change:
// rename collisions, reserved-category violations, empty names. These are
// recoverable by design and never leave partial mutations behind.
type ValidationError struct {
	Op      string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing entity reference.
type NotFoundError struct {
	Kind string
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
