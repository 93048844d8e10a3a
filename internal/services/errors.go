package services

import (
	"errors"
	"fmt"
	"time"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBusinessRule
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is returned by every service operation that fails for a reason the
// caller can act on. Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func notFoundErr(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func businessErr(format string, args ...any) *Error {
	return newError(KindBusinessRule, format, args...)
}

func conflictErr(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func unauthorizedErr(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func forbiddenErr(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func internalErr(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// SlotTakenError reports that the requested doctor is booked within an hour
// of the requested time.
type SlotTakenError struct {
	Doctor    string
	Requested time.Time
	Suggested time.Time
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("%s is busy at %s. Suggested next available: %s",
		e.Doctor, e.Requested.Format("15:04"), e.Suggested.Format("15:04"))
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	var slot *SlotTakenError
	if errors.As(err, &slot) {
		return KindBusinessRule
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	var slot *SlotTakenError
	if errors.As(err, &slot) {
		return slot.Error()
	}
	return "Internal server error"
}
