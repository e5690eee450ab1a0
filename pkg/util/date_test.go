package util

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2024-06-20")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(DayFormat) != "2024-06-20" {
		t.Fatalf("unexpected day %v", got)
	}
	if _, ok := ParseDay("20-06-2024"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 20, 15, 30, 0, 0, time.UTC)
	b := time.Date(2024, 6, 20, 2, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 92 {
		t.Fatalf("expected 92 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -92 {
		t.Fatalf("expected -92 days, got %d", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(130.9004); got != 130.9 {
		t.Fatalf("unexpected %v", got)
	}
	if got := Round2(0.005); got != 0.01 {
		t.Fatalf("unexpected %v", got)
	}
}
