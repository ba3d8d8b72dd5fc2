package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports malformed or out-of-range input
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized reports a missing or expired credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden reports a credential that is present but invalid
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound reports a resource that is absent or not owned by the caller
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds reports a balance too low for the requested amount
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInvalidStateTransition reports a status change the record does not allow
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrAlreadyProcessed reports a replayed completion of a finished record
	ErrAlreadyProcessed = fmt.Errorf("%w: already processed", ErrInvalidStateTransition)
)

// Error carries a caller-facing message for one of the sentinel kinds above
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an *Error of the given kind
func NewError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
