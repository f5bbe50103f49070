package session

import "errors"

var (
	// ErrForbidden means the caller may not act for the claimed employee.
	ErrForbidden = errors.New("caller may not act for this employee")

	// ErrDuplicateOpenSession means the employee already has an open entry
	// and must exit first.
	ErrDuplicateOpenSession = errors.New("employee already has an open entry; must exit first")

	// ErrOutOfBounds means the supplied location is outside the geofence.
	ErrOutOfBounds = errors.New("location is outside the allowed area")

	// ErrNoOpenSession means exit was requested with no open entry on file.
	ErrNoOpenSession = errors.New("no open session to exit")

	// ErrInvalidChronology means the exit instant does not follow the entry.
	ErrInvalidChronology = errors.New("exit time must be after entry time")

	// ErrUnknownMethod means the requested verification method is not wired.
	ErrUnknownMethod = errors.New("unknown verification method")
)
