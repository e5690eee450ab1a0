package util

import (
	"math"
	"time"
)

// DayFormat is the canonical day layout used across inputs and artifacts.
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD day string in UTC. Returns (t, true) if it
// parsed.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseTime tries RFC3339 first, then the day layout. Returns (t, true) if
// any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return ParseDay(s)
}

// DayUTC truncates a time to midnight UTC.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative when b precedes a).
// Both are truncated to day boundaries first.
func DaysBetween(a, b time.Time) int {
	return int(DayUTC(b).Sub(DayUTC(a)) / (24 * time.Hour))
}

// Round2 rounds to two decimal places, the precision of all float output.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
