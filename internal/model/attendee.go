package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendeeAvailability holds the instants one attendee marked free for an
// event. Instants are UTC with minute precision and are nominally aligned
// to half-hour slot boundaries.
type AttendeeAvailability struct {
	EventID      uuid.UUID   // event_attendees.event_id
	UserID       uuid.UUID   // event_attendees.user_id
	Availability []time.Time // event_attendees.availability (JSON array)
	Role         string      // event_attendees.role
}
