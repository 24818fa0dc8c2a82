package model

import (
	"time"

	"github.com/google/uuid"
)

// ShowtimeDay is one day of the provider's showtime listing.
type ShowtimeDay struct {
	Day      string    `json:"day"`
	Theaters []Theater `json:"theaters"`
}

// Theater lists the showings of one venue on a given day.
type Theater struct {
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Distance string    `json:"distance"`
	Showing  []Showing `json:"showing"`
}

// Showing groups the start times of one presentation format
// (e.g. "Standard", "IMAX").
type Showing struct {
	Type string   `json:"type"`
	Time []string `json:"time"`
}

// MatchResult is the availability of attendees for one candidate showtime.
type MatchResult struct {
	AvailableUsers         []uuid.UUID `json:"available_users"`
	AvailabilityPercentage int         `json:"availability_percentage"`
	RequiredTimeSlots      []time.Time `json:"required_time_slots"`
}

// RankedShowtime is a persisted candidate showtime with its availability.
// The set for an event is replaced wholesale on each ranking run.
type RankedShowtime struct {
	EventID                uuid.UUID   `json:"event_id"`
	TheaterName            string      `json:"theater_name"`
	TheaterAddress         string      `json:"theater_address"`
	Distance               string      `json:"distance"`
	StartTime              time.Time   `json:"start_time"`
	ShowingType            string      `json:"showing_type"`
	AvailableUsers         []uuid.UUID `json:"available_users"`
	AvailabilityPercentage int         `json:"availability_percentage"`
	RequiredTimeSlots      []time.Time `json:"required_time_slots"`
}
