package store

import "errors"

// Sentinel variables let callers detect conditions via errors.Is instead of
// brittle string comparisons.

var (
	// ErrNotFound is returned when the requested task or ticket does not
	// exist in the underlying storage.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidID indicates that the supplied id is empty or otherwise
	// invalid.
	ErrInvalidID = errors.New("store: invalid id")

	// ErrNilInput is returned when the caller attempts to persist nil input.
	ErrNilInput = errors.New("store: nil input")
)
