package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store.
	ErrNotFound = errors.New("entity not found")

	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when a conditional state transition matched no
	// row, i.e. the card was not in the expected status. A concurrent tick or
	// manual trigger won the race; the caller backs off.
	ErrConflict = errors.New("card not in expected status")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransient marks infrastructure faults worth retrying (connection
	// refused, timeouts). Implementations wrap the underlying error with it.
	ErrTransient = errors.New("transient store fault")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if the error reports a lost conditional transition.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsTransientError checks if the error is a retryable infrastructure fault.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrTransient)
}
