package service

import (
	"fmt"
	"strings"
	"time"
)

const compactDateLayout = "20060102"

var dateSeparators = strings.NewReplacer("-", "", ".", "", "/", "", " ", "", "\t", "")

// ParseDateStrict parses YYYYMMDD with any of - . / or whitespace as separators.
// Only the first eight digits after stripping separators are considered.
func ParseDateStrict(s string) (time.Time, error) {
	compact := dateSeparators.Replace(s)
	if len(compact) < len(compactDateLayout) {
		return time.Time{}, fmt.Errorf("date %q is too short", s)
	}

	t, err := time.Parse(compactDateLayout, compact[:len(compactDateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseDateBestEffort never fails: unparseable input yields now.
// Callers compare the result, so it must never be zero.
func ParseDateBestEffort(s string, now time.Time) time.Time {
	t, err := ParseDateStrict(s)
	if err != nil {
		return now
	}
	return t
}

// ParseDate is ParseDateBestEffort against the wall clock
func ParseDate(s string) time.Time {
	return ParseDateBestEffort(s, time.Now())
}

// calendarDate drops the time of day, keeping the date as seen in t's location
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isAfterDay reports whether a falls on a later calendar day than b
func isAfterDay(a, b time.Time) bool {
	return calendarDate(a).After(calendarDate(b))
}
