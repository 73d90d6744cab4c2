package utils

import (
	"fmt"
	"strings"
	"time"
)

// Event dates come in from the create-event form as YYYY-MM-DD.
const eventDateLayout = "2006-01-02"

// ParseEventDate parses an event's calendar date. Unparseable dates are
// returned as an error and treated by callers as "no date known" rather
// than a hard failure.
func ParseEventDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty event date")
	}
	date, err := time.Parse(eventDateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date %q: %w", value, err)
	}
	return date, nil
}

// FormatEventDate renders a date the way the event forms expect it.
func FormatEventDate(t time.Time) string {
	return t.Format(eventDateLayout)
}
