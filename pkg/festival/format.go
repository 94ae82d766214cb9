package festival

import (
	"fmt"
	"strings"
)

const (
	DefaultInlineMax = 15

	NoUpcomingFestivalsInline = "No major festivals in the next few months."
	NoUpcomingFestivalsChat   = "No major festivals in the next 90 days."
)

// FormatForInlinePrompt renders at most maxCount events as a single
// comma separated line, "Diwali (2026-11-08), ...".
func FormatForInlinePrompt(events []CalendarEvent, maxCount int) string {
	if len(events) == 0 {
		return NoUpcomingFestivalsInline
	}
	if maxCount <= 0 {
		maxCount = DefaultInlineMax
	}
	if len(events) > maxCount {
		events = events[:maxCount]
	}

	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("%s (%s)", e.Name, FormatCanonical(e.Date))
	}
	return strings.Join(parts, ", ")
}

// FormatForChatContext renders every event on its own bullet line.
func FormatForChatContext(events []CalendarEvent) string {
	if len(events) == 0 {
		return NoUpcomingFestivalsChat
	}

	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("- %s on %s", e.Name, FormatLong(e.Date))
	}
	return strings.Join(lines, "\n")
}
