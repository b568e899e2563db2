package clock

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected input. Every kind is deterministic and not retryable.
type Kind string

const (
	KindInvalidField          Kind = "invalid_field"
	KindIllegalTransition     Kind = "illegal_transition"
	KindNonMonotonicTimestamp Kind = "non_monotonic_timestamp"
	KindInvalidRange          Kind = "invalid_range"
)

// Error is returned for every rejection produced by the validator and the reporting helpers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidRange builds an InvalidRange rejection, used by callers parsing week/month boundaries.
func InvalidRange(format string, args ...any) error {
	return newError(KindInvalidRange, format, args...)
}

// InvalidField builds an InvalidField rejection for payload checks made outside this package.
func InvalidField(format string, args ...any) error {
	return newError(KindInvalidField, format, args...)
}

// NonMonotonic builds a NonMonotonicTimestamp rejection.
func NonMonotonic(format string, args ...any) error {
	return newError(KindNonMonotonicTimestamp, format, args...)
}

// KindOf extracts the rejection kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
