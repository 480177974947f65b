package service

import (
	"context"
	"fmt"
	"time"

	"medbook/pkg/calendar"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

// GenerateSlots expands the doctor's weekly spec into concrete slots for the
// requested date range. Slots are derived on every call, never persisted, so
// the remaining capacity always reflects the live appointment set. The range
// is capped (SlotRangeCapDays, default 60) to bound cost.
func (s *availabilityService) GenerateSlots(ctx context.Context, doctorID string, from, to string) ([]*model.Slot, error) {
	spec, err := s.GetByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	loc := spec.Location()
	fromDay, err := calendar.ParseDate(from, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("from must be a YYYY-MM-DD date")
	}
	toDay, err := calendar.ParseDate(to, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("to must be a YYYY-MM-DD date")
	}
	if toDay.Before(fromDay) {
		return nil, apperrors.InvalidInput("to must not be before from")
	}

	capDays := s.cfg.SlotRangeCapDays
	if int(toDay.Sub(fromDay).Hours()/24) >= capDays {
		return nil, apperrors.InvalidInput(fmt.Sprintf("date range exceeds the %d-day limit", capDays))
	}

	var slots []*model.Slot
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		daySlots, err := s.slotsForDay(ctx, spec, day)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daySlots...)
	}

	return slots, nil
}

func (s *availabilityService) slotsForDay(ctx context.Context, spec *model.Availability, day time.Time) ([]*model.Slot, error) {
	// Days off win over declared windows.
	if spec.IsDayOff(day) {
		return nil, nil
	}

	date := day.Format(calendar.DateLayout)
	var slots []*model.Slot
	for _, w := range spec.WindowsOn(day.Weekday()) {
		booked, err := s.counter.CountBySlot(ctx, spec.DoctorID, date, w.StartTime, w.EndTime)
		if err != nil {
			s.cfg.Log.Error("Failed to count slot occupancy",
				"doctor_id", spec.DoctorID,
				"date", date,
				"start_time", w.StartTime,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to derive slot occupancy", err)
		}

		slots = append(slots, &model.Slot{
			DoctorID:    spec.DoctorID,
			Date:        date,
			StartTime:   w.StartTime,
			EndTime:     w.EndTime,
			Capacity:    w.MaxBookings,
			BookedCount: int(booked),
		})
	}
	return slots, nil
}

// ResolveSlot re-derives the single slot matching the requested coordinates.
// It fails with SLOT_NOT_AVAILABLE when the date is a day off, the times do
// not exactly match a declared window, or the window has already ended in the
// doctor's time zone. Occupancy is intentionally left at zero: the booking
// engine counts inside its transaction, at commit time.
func (s *availabilityService) ResolveSlot(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
	spec, err := s.GetByDoctor(ctx, doctorID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.SlotNotAvailable("Doctor has not published an availability schedule")
		}
		return nil, err
	}

	day, err := calendar.ParseDate(date, spec.Location())
	if err != nil {
		return nil, apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}

	if spec.IsDayOff(day) {
		return nil, apperrors.SlotNotAvailable("Doctor is not available on " + date)
	}

	for _, w := range spec.WindowsOn(day.Weekday()) {
		if w.StartTime == startTime && w.EndTime == endTime {
			endMinute, err := calendar.MinuteOfDay(w.EndTime)
			if err != nil {
				return nil, apperrors.Internal("Stored window has an invalid end time", err)
			}
			if !calendar.At(day, endMinute).After(s.now()) {
				return nil, apperrors.SlotNotAvailable(
					fmt.Sprintf("Slot %s %s-%s is in the past", date, startTime, endTime))
			}
			return &model.Slot{
				DoctorID:  doctorID,
				Date:      date,
				StartTime: w.StartTime,
				EndTime:   w.EndTime,
				Capacity:  w.MaxBookings,
			}, nil
		}
	}

	return nil, apperrors.SlotNotAvailable(
		fmt.Sprintf("No declared window matches %s %s-%s", date, startTime, endTime))
}
