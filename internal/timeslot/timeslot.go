// Package timeslot produces the canonical half-hour slot instants used as
// keys for availability aggregates. A slot is identified by its UTC start
// instant truncated to the minute.
package timeslot

import (
	"fmt"
	"time"
)

// Length is the width of a slot.
const Length = 30 * time.Minute

const (
	dayStartHour = 9  // first slot starts at local 09:00
	dayEndHour   = 24 // last slot ends at local 00:00 of the next day
)

// LoadZone resolves an event timezone. An empty name is UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeslot: load zone %q: %w", name, err)
	}
	return loc, nil
}

// ForDate returns the slots covering local [09:00, 24:00) of the calendar
// day of date in loc. Only date's year, month and day are used. Slots step
// by 30 minutes of elapsed time, so each one carries the offset in effect at
// that instant and a DST transition inside the window changes the count.
func ForDate(date time.Time, loc *time.Location) []time.Time {
	y, m, d := date.Date()
	start := time.Date(y, m, d, dayStartHour, 0, 0, 0, loc)
	end := time.Date(y, m, d, dayEndHour, 0, 0, 0, loc)

	slots := make([]time.Time, 0, (dayEndHour-dayStartHour)*2)
	for t := start; t.Before(end); t = t.Add(Length) {
		slots = append(slots, Canonical(t))
	}
	return slots
}

// DateOf returns the calendar day of instant t as seen in loc, expressed
// as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDay normalizes a potential date. A UTC midnight value is a plain
// calendar date and keeps its literal day. Anything else is an instant and
// its day is read in loc.
func CalendarDay(date time.Time, loc *time.Location) time.Time {
	if isPlainDate(date) {
		return date
	}
	return DateOf(date, loc)
}

func isPlainDate(t time.Time) bool {
	if t.Location() != time.UTC {
		return false
	}
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// ForZone is ForDate with the zone given by name.
func ForZone(date time.Time, zone string) ([]time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return nil, err
	}
	return ForDate(date, loc), nil
}

// Canonical converts t to the form used for slot keys: UTC, whole minute.
func Canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// Floor returns the slot boundary at or before t.
func Floor(t time.Time) time.Time {
	return t.UTC().Truncate(Length)
}

// Ceil returns the slot boundary at or after t.
func Ceil(t time.Time) time.Time {
	f := Floor(t)
	if f.Before(t) {
		return f.Add(Length)
	}
	return f
}

// Range returns every slot boundary from from through to, inclusive.
func Range(from, to time.Time) []time.Time {
	var out []time.Time
	for t := Floor(from); !t.After(to); t = t.Add(Length) {
		out = append(out, t)
	}
	return out
}

// Overlaps reports whether the slot starting at slot intersects [start, end).
func Overlaps(slot, start, end time.Time) bool {
	return slot.Before(end) && slot.Add(Length).After(start)
}
