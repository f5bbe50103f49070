package store

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrIndexUnavailable signals that the backing store cannot execute the
	// requested composite query shape. Callers degrade to a broader scan;
	// this error must never reach an API client.
	ErrIndexUnavailable = errors.New("composite index unavailable")
)
