package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChainAll is the chain value that disables theater filtering.
const ChainAll = "All"

// Event is a group movie outing whose attendees submit availability.
// Only the fields the matching engine needs are modelled here; title,
// creator and location belong to the event CRUD layer.
//
// Fields:
//   - ID: primary key identifier (UUID).
//   - Timezone: IANA zone the potential dates are expressed in. Empty
//     means UTC.
//   - PotentialDates: candidate calendar days, each a UTC midnight; only
//     year, month and day are meaningful.
//   - Chain: optional theater-brand substring filter.
type Event struct {
	ID             uuid.UUID   // events.id
	Timezone       string      // events.timezone
	PotentialDates []time.Time // events.potential_dates (JSON array of dates)
	Chain          string      // events.chain (nullable)
}

// AcceptsTheater reports whether a theater name passes the event's chain
// filter. An unset chain or ChainAll accepts every theater.
func (e Event) AcceptsTheater(name string) bool {
	if e.Chain == "" || e.Chain == ChainAll {
		return true
	}
	return strings.Contains(name, e.Chain)
}
