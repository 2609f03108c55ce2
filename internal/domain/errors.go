package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced flight or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoCapacity is returned when a flight has no seats left.
	ErrNoCapacity = errors.New("no seats available")
	// ErrTransient covers store faults: lock timeouts, serialization
	// failures, lost connections. Callers may retry with the same input.
	ErrTransient = errors.New("transient failure")
	// ErrInvalidArgument rejects malformed input before any store access.
	ErrInvalidArgument = errors.New("invalid argument")
)
