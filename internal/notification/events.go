package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates the domain events that trigger notifications.
type EventKind string

const (
	EventLateArrival         EventKind = "late_arrival"
	EventLocationViolation   EventKind = "location_violation"
	EventExpiredCredential   EventKind = "expired_credential"
	EventExitRecorded        EventKind = "exit_recorded"
	EventOpenSessionReminder EventKind = "open_session_reminder"
)

// Event is a fire-and-forget notification request emitted by the attendance
// engine. Delivery failures are logged and swallowed, never surfaced to the
// operation that produced the event.
type Event struct {
	Kind       EventKind
	EmployeeID uuid.UUID
	Email      string
	OccurredAt time.Time
	Detail     string
}

// message renders the push payload title and body for the event.
func (e Event) message() (title, body string) {
	when := e.OccurredAt.Format("15:04")
	switch e.Kind {
	case EventLateArrival:
		return "Late arrival", fmt.Sprintf("Check-in recorded at %s, after the expected start of day.", when)
	case EventLocationViolation:
		return "Check-in outside allowed area", fmt.Sprintf("A check-in attempt at %s was made outside the office geofence.", when)
	case EventExpiredCredential:
		return "Expired check-in code", "A scanned QR code was no longer fresh. Generate a new code and scan it right away."
	case EventExitRecorded:
		return "Check-out recorded", fmt.Sprintf("Your working session was closed at %s.", when)
	case EventOpenSessionReminder:
		return "Forgotten check-out?", fmt.Sprintf("Your session opened at %s is still running. Remember to check out.", e.OccurredAt.Format("Jan 2 15:04"))
	}
	return "Attendance notice", e.Detail
}
