package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotAggregate is the per-slot availability summary for an event. There
// is exactly one row per (EventID, TimeSlot) and rows are only ever
// upserted by the availability aggregator.
type SlotAggregate struct {
	EventID          uuid.UUID   `json:"event_id"`
	TimeSlot         time.Time   `json:"time_slot"`
	AvailabilityPct  int         `json:"availability_pct"`
	AvailableUserIDs []uuid.UUID `json:"available_user_ids"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
