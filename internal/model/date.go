package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical deadline encoding.
const DateLayout = "2006-01-02"

// DisplayPlaceholder is shown for an empty deadline.
const DisplayPlaceholder = "yyyy. mm. dd."

// Today returns the local calendar date of now in canonical form.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// FormatDeadline renders a canonical YYYY-MM-DD deadline as "YYYY. MM. DD.".
// Missing components render empty.
func FormatDeadline(deadline string) string {
	if deadline == "" {
		return DisplayPlaceholder
	}
	parts := strings.SplitN(deadline, "-", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return fmt.Sprintf("%s. %s. %s.", parts[0], parts[1], parts[2])
}

// ParseDeadline parses a canonical deadline in loc.
func ParseDeadline(deadline string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(deadline), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse deadline %q: %w", deadline, err)
	}
	return t, nil
}

// AddDays shifts a canonical deadline by n days. An unparsable or empty
// deadline is treated as today.
func AddDays(deadline string, n int, now time.Time) string {
	t, err := ParseDeadline(deadline, now.Location())
	if err != nil {
		t = now
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
