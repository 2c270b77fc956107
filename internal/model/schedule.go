package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

// StartsAt combines a showing date and clock time in loc.
func StartsAt(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(layout, clock, loc)
		if err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", clock)
}

// CanonicalSchedule parses date and clock and returns them zero padded, so
// that they sort correctly as text. Seconds are kept only when set.
func CanonicalSchedule(date, clock string) (string, string, error) {
	start, err := StartsAt(date, clock, nil)
	if err != nil {
		return "", "", err
	}
	layout := clockLayouts[0]
	if start.Second() != 0 {
		layout = clockLayouts[1]
	}
	return start.Format(DateLayout), start.Format(layout), nil
}

// IsPast reports whether a showing at date+clock started strictly before now,
// reading date and clock in now's location. A schedule that cannot be parsed
// is never past.
func IsPast(date, clock string, now time.Time) bool {
	start, err := StartsAt(date, clock, now.Location())
	if err != nil {
		return false
	}
	return start.Before(now)
}

// IsFuture is the complement of IsPast for well-formed schedules.
func IsFuture(date, clock string, now time.Time) bool {
	start, err := StartsAt(date, clock, now.Location())
	if err != nil {
		return false
	}
	return !start.Before(now)
}

func (s *Showing) IsPast(now time.Time) bool {
	return IsPast(s.Date, s.Time, now)
}
