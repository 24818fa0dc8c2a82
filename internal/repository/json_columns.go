package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/timeslot"
)

// Set-valued columns are stored as MySQL JSON arrays. These helpers keep the
// encoding in one place so every repository writes the same shapes.

const dateLayout = "2006-01-02"

func encodeTimes(ts []time.Time) ([]byte, error) {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

func decodeTimes(raw []byte) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, fmt.Errorf("decode time list: %w", err)
	}
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("decode time list: %w", err)
		}
		out = append(out, t.UTC())
	}
	return out, nil
}

// decodeDates accepts plain calendar dates and, for rows written by older
// clients, full timestamps. A timestamp is reduced to its calendar day in
// loc, so every result is a UTC midnight.
func decodeDates(raw []byte, loc *time.Location) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, fmt.Errorf("decode date list: %w", err)
	}
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		if t, err := time.Parse(dateLayout, s); err == nil {
			out = append(out, t)
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("decode date list: %q: %w", s, err)
		}
		out = append(out, timeslot.DateOf(t, loc))
	}
	return out, nil
}

func encodeUUIDs(ids []uuid.UUID) ([]byte, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return json.Marshal(ids)
}

func decodeUUIDs(raw []byte) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return []uuid.UUID{}, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
