package schema

import "fmt"

// ErrorKind classifies validation failures so callers can react to the exact
// violation instead of string-matching messages.
type ErrorKind int

const (
	ErrUnknownField ErrorKind = iota
	ErrTypeMismatch
	ErrInvalidEnum
	ErrBelowMinimum
	ErrAboveMaximum
	ErrTooShort
	ErrTooLong
	ErrPatternMismatch
	ErrRequiredMissing
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownField:
		return "unknown field"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrInvalidEnum:
		return "invalid enum value"
	case ErrBelowMinimum:
		return "below minimum"
	case ErrAboveMaximum:
		return "above maximum"
	case ErrTooShort:
		return "too short"
	case ErrTooLong:
		return "too long"
	case ErrPatternMismatch:
		return "pattern mismatch"
	case ErrRequiredMissing:
		return "required value missing"
	}
	return "invalid"
}

// Error carries the offending field plus the concrete expected/actual pair.
type Error struct {
	Kind     ErrorKind
	FieldID  string
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return fmt.Sprintf("field %q: %s", e.FieldID, e.Kind)
	}
	return fmt.Sprintf("field %q: %s (expected %s, got %s)", e.FieldID, e.Kind, e.Expected, e.Actual)
}

func newError(kind ErrorKind, fieldID, expected, actual string) *Error {
	return &Error{Kind: kind, FieldID: fieldID, Expected: expected, Actual: actual}
}
