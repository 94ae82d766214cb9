package festival

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CanonicalLayout = "2006-01-02"
	LongLayout      = "January 02, 2006"
)

var datedLayouts = []string{
	CanonicalLayout,
	time.RFC3339,
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// Layouts without a year; the year is resolved against the evaluation date.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"01-02",
}

var ErrInvalidDate = errors.New("invalid date")

// DateOf drops the time of day, keeping the calendar date as seen in t's
// location, and returns it as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from -> to. Negative when to is
// earlier than from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// ParseDate is the single place date strings coming from sources and
// providers are interpreted. Yearless values resolve to their next
// occurrence on or after evaluationDate.
func ParseDate(value string, evaluationDate time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOf(t), nil
		}
	}

	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if resolved, ok := nextOccurrence(t.Month(), t.Day(), DateOf(evaluationDate)); ok {
			return resolved, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q never occurs", ErrInvalidDate, value)
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// FormatCanonical renders YYYY-MM-DD.
func FormatCanonical(t time.Time) string {
	return t.Format(CanonicalLayout)
}

// FormatLong renders e.g. "November 08, 2026".
func FormatLong(t time.Time) string {
	return t.Format(LongLayout)
}

func nextOccurrence(month time.Month, day int, from time.Time) (time.Time, bool) {
	// Feb 29 may need up to four years to come around.
	for offset := 0; offset <= 4; offset++ {
		year := from.Year() + offset
		if day > daysIn(month, year) {
			continue
		}
		candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if !candidate.Before(from) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
