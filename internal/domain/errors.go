package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidState      = errors.New("invalid_state")
	ErrInvalidOperation  = errors.New("invalid_operation")
	ErrNotFound          = errors.New("not_found")
	ErrEmailTaken        = errors.New("email_taken")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps a storage-layer failure. It is the only error
// class the core treats as non-recoverable: the atomic unit aborts and
// the error propagates to the caller unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
