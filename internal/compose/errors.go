package compose

import (
	"errors"
	"fmt"
)

// ErrUnknownPlatform is returned when a platform id is not present in the registry.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrBrokenThread is returned when a parent chain references a missing post
// or loops back on itself.
var ErrBrokenThread = errors.New("broken thread")

// ValidationError reports a field-level validation failure. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is a field-level validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
