package service

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DayLabel is a parsed provider day heading such as "TodayJul 8" or
// "SatJul 12". Relative holds whatever precedes the month ("Today",
// "Sat", or empty).
type DayLabel struct {
	Relative string
	Month    time.Month
	Day      int
}

// TimeLabel is a parsed 12-hour clock label such as "5:00pm".
type TimeLabel struct {
	Hour12 int
	Minute int
	PM     bool
}

// Hour24 converts the label to a 0-23 hour. 12am is 0 and 12pm is 12.
func (t TimeLabel) Hour24() int {
	h := t.Hour12 % 12
	if t.PM {
		h += 12
	}
	return h
}

var monthNames = func() map[string]time.Month {
	m := map[string]time.Month{"sept": time.September}
	for mo := time.January; mo <= time.December; mo++ {
		full := strings.ToLower(mo.String())
		m[full] = mo
		m[full[:3]] = mo
	}
	return m
}()

const longestMonthName = len("september")

// ParseDayLabel splits a day heading into its relative marker, month and
// day of month. Spaces and punctuation between the parts are ignored, and
// the month is the longest month name that ends the leading letter run.
func ParseDayLabel(s string) (DayLabel, error) {
	var letters, digits strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if digits.Len() > 0 {
				return DayLabel{}, &ParseError{Input: s, Reason: "letters after day number"}
			}
			letters.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case unicode.IsSpace(r), r == ',', r == '.':
		default:
			return DayLabel{}, &ParseError{Input: s, Reason: "unexpected character"}
		}
	}
	alpha := letters.String()
	if digits.Len() == 0 {
		return DayLabel{}, &ParseError{Input: s, Reason: "missing day number"}
	}

	var (
		month time.Month
		n     int
	)
	for n = min(len(alpha), longestMonthName); n >= 3; n-- {
		if mo, ok := monthNames[alpha[len(alpha)-n:]]; ok {
			month = mo
			break
		}
	}
	if month == 0 {
		return DayLabel{}, &ParseError{Input: s, Reason: "missing month"}
	}

	day, err := strconv.Atoi(digits.String())
	// 2000 is a leap year, so Feb 29 is accepted here.
	if err != nil || day < 1 || time.Date(2000, month, day, 0, 0, 0, 0, time.UTC).Month() != month {
		return DayLabel{}, &ParseError{Input: s, Reason: "day out of range"}
	}

	rel := strings.TrimSpace(s)
	rel = rel[:relativeLen(rel, len(alpha)-n)]
	return DayLabel{Relative: rel, Month: month, Day: day}, nil
}

// relativeLen returns the byte length of the prefix of s holding its
// first k letters, so the marker keeps its original case.
func relativeLen(s string, k int) int {
	if k == 0 {
		return 0
	}
	seen := 0
	for i, r := range s {
		if unicode.IsLetter(r) {
			seen++
			if seen == k {
				return i + len(string(r))
			}
		}
	}
	return len(s)
}

// ParseTimeLabel parses "5:00pm", "10:30 PM", "7pm" or "9:15 a.m.".
func ParseTimeLabel(s string) (TimeLabel, error) {
	norm := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' {
			return -1
		}
		return unicode.ToLower(r)
	}, s)

	var t TimeLabel
	switch {
	case strings.HasSuffix(norm, "pm"):
		t.PM = true
	case strings.HasSuffix(norm, "am"):
	default:
		return TimeLabel{}, &ParseError{Input: s, Reason: "missing am/pm"}
	}
	clock := norm[:len(norm)-2]

	hh, mm, hasMinutes := strings.Cut(clock, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 1 || h > 12 {
		return TimeLabel{}, &ParseError{Input: s, Reason: "hour out of range"}
	}
	t.Hour12 = h
	if hasMinutes {
		m, err := strconv.Atoi(mm)
		if err != nil || len(mm) != 2 || m < 0 || m > 59 {
			return TimeLabel{}, &ParseError{Input: s, Reason: "minute out of range"}
		}
		t.Minute = m
	}
	return t, nil
}

// ShowtimeStart combines parsed labels into a UTC instant. The labels are
// wall-clock time in loc for the given year.
func ShowtimeStart(day DayLabel, clock TimeLabel, year int, loc *time.Location) time.Time {
	return time.Date(year, day.Month, day.Day, clock.Hour24(), clock.Minute, 0, 0, loc).UTC()
}
