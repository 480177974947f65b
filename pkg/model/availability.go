package model

import (
	"strings"
	"time"
)

// WeeklyWindow is one recurring block of bookable time on a weekday. Capacity
// is per window: MaxBookings patients may share the same window, the window is
// never subdivided into fixed-length sub-slots.
type WeeklyWindow struct {
	DayOfWeek   string `json:"day_of_week" bson:"day_of_week" validate:"required,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime   string `json:"start_time" bson:"start_time" validate:"required,clock_time"`
	EndTime     string `json:"end_time" bson:"end_time" validate:"required,clock_time"`
	MaxBookings int    `json:"max_bookings" bson:"max_bookings" validate:"required,min=1,max=200"`
}

// Availability is a doctor's declared weekly schedule. It is one document per
// doctor, replaced wholesale on every update; booking activity never mutates it.
type Availability struct {
	ID             string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID       string         `json:"doctor_id" bson:"doctor_id" validate:"required,mongodb"`
	Windows        []WeeklyWindow `json:"windows" bson:"windows" validate:"required,min=1,max=28,dive"`
	DaysOff        []string       `json:"days_off,omitempty" bson:"days_off" validate:"omitempty,max=7,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	DateExceptions []string       `json:"date_exceptions,omitempty" bson:"date_exceptions" validate:"omitempty,dive,calendar_date"`
	TimeZone       string         `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Location resolves the schedule's time zone, falling back to UTC.
func (a *Availability) Location() *time.Location {
	if a.TimeZone != "" {
		if loc, err := time.LoadLocation(a.TimeZone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// WindowsOn returns the declared windows for a weekday.
func (a *Availability) WindowsOn(weekday time.Weekday) []WeeklyWindow {
	var windows []WeeklyWindow
	for _, w := range a.Windows {
		if strings.EqualFold(w.DayOfWeek, weekday.String()) {
			windows = append(windows, w)
		}
	}
	return windows
}

// IsDayOff reports whether slot generation is suppressed on the given date,
// either by a recurring weekday off or an explicit date exception. Days off
// win over declared windows.
func (a *Availability) IsDayOff(date time.Time) bool {
	for _, d := range a.DaysOff {
		if strings.EqualFold(d, date.Weekday().String()) {
			return true
		}
	}
	dateStr := date.Format("2006-01-02")
	for _, d := range a.DateExceptions {
		if d == dateStr {
			return true
		}
	}
	return false
}
