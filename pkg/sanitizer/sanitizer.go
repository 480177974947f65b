// Package sanitizer normalizes free-text input before validation so the core
// services only ever see canonical strings.
package sanitizer

import (
	"strings"
	"unicode"

	"medbook/pkg/calendar"
)

// CollapseWhitespace trims the string and folds any run of whitespace into a
// single space.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// NormalizeWeekday canonicalizes a weekday name to "Monday" form so day-off
// comparisons are case-insensitive end to end.
func NormalizeWeekday(day string) string {
	day = strings.ToLower(strings.TrimSpace(day))
	if day == "" {
		return ""
	}
	return strings.ToUpper(day[:1]) + day[1:]
}

// CanonicalClock rewrites a clock string to zero-padded "HH:MM" so slot keys
// compare equal across input spellings ("9:00" vs "09:00"). Invalid values
// pass through untouched for the validator to reject.
func CanonicalClock(clock string) string {
	m, err := calendar.MinuteOfDay(strings.TrimSpace(clock))
	if err != nil {
		return clock
	}
	return calendar.Clock(m)
}
