// Package calendar is the single source of truth for time arithmetic shared by
// slot generation, booking and the dashboard queries. Keeping day and week
// boundaries here prevents the off-by-one-day drift that appears when each
// caller rolls its own.
package calendar

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for times of day.
	ClockLayout = "15:04"
)

// MinuteOfDay converts "HH:MM" into minutes since midnight. All window and
// slot comparisons run on this canonical integer form, never on raw strings.
func MinuteOfDay(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Clock renders minutes since midnight back to "HH:MM".
func Clock(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}

// ParseDate parses a "YYYY-MM-DD" calendar date in the given location.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the first instant of the following day. Day windows are
// half-open: [StartOfDay, EndOfDay).
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// StartOfWeek returns midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns the first instant after the Sunday of t's week, so the
// Monday-Sunday window is the half-open range [StartOfWeek, EndOfWeek).
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7)
}

// At anchors a minute-of-day onto a calendar day.
func At(day time.Time, minuteOfDay int) time.Time {
	return StartOfDay(day).Add(time.Duration(minuteOfDay) * time.Minute)
}

// Overlaps reports whether two half-open minute ranges intersect.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}
