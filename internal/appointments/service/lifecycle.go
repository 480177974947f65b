package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmenterrors "medbook/internal/appointments/errors"
	"medbook/internal/appointments/repository"
	"medbook/internal/events"
	"medbook/pkg/calendar"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

// ScheduleSource exposes the doctor's published availability, used here only
// for its time zone when deciding whether a slot has elapsed.
type ScheduleSource interface {
	GetByDoctor(ctx context.Context, doctorID string) (*model.Availability, error)
}

type LifecycleService interface {
	Confirm(ctx context.Context, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, id, actor string) (*model.Appointment, error)
	Complete(ctx context.Context, id string) (*model.Appointment, error)
}

type lifecycleService struct {
	repo      repository.AppointmentRepository
	schedules ScheduleSource
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewLifecycleService(
	repo repository.AppointmentRepository,
	schedules ScheduleSource,
	publisher events.Publisher,
	cfg *config.Config,
) LifecycleService {
	return &lifecycleService{
		repo:      repo,
		schedules: schedules,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Confirm moves a pending appointment to confirmed. Confirming an already
// confirmed appointment is a no-op so retried requests succeed.
func (s *lifecycleService) Confirm(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == model.StatusConfirmed {
		return appt, nil
	}

	appt, err = s.transition(ctx, appt, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment confirmed", "appointment_id", appt.ID, "doctor_id", appt.DoctorID)
	s.publisher.Publish(ctx, events.AppointmentConfirmed, appt.ID, appt)
	return appt, nil
}

// Cancel releases the slot seat by flipping status; the row itself is never
// deleted. Unlike confirm, cancel is not idempotent: cancelling an already
// cancelled appointment is an invalid transition, as is cancelling a
// completed one.
func (s *lifecycleService) Cancel(ctx context.Context, id, actor string) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	appt, err = s.transition(ctx, appt, model.StatusCancelled)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment cancelled",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"cancelled_by", actor,
	)
	s.publisher.Publish(ctx, events.AppointmentCancelled, appt.ID, map[string]any{
		"appointment":  appt,
		"cancelled_by": actor,
	})
	return appt, nil
}

// Complete marks a confirmed appointment as completed, but only once the slot
// has ended in the doctor's time zone. Completing early is TOO_EARLY, not an
// invalid transition, so the caller knows to retry later. Completing an
// already completed appointment is an invalid transition.
func (s *lifecycleService) Complete(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(model.StatusCompleted) {
		return nil, apperrors.InvalidTransition(string(appt.Status), string(model.StatusCompleted))
	}

	endsAt, err := s.slotEnd(ctx, appt)
	if err != nil {
		return nil, err
	}
	if s.now().Before(endsAt) {
		return nil, apperrors.TooEarly(fmt.Sprintf(
			"Appointment cannot be completed before its slot ends at %s",
			endsAt.Format(time.RFC3339)))
	}

	appt, err = s.transition(ctx, appt, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment completed",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"consultation_fee", appt.ConsultationFee,
	)
	s.publisher.Publish(ctx, events.AppointmentCompleted, appt.ID, appt)
	return appt, nil
}

// transition applies a conditional status write pinned to the loaded status.
// If a concurrent request won the race, the appointment is re-read: only a
// confirm losing to an identical confirm still succeeds, every other double
// transition is a conflict.
func (s *lifecycleService) transition(ctx context.Context, appt *model.Appointment, target model.AppointmentStatus) (*model.Appointment, error) {
	if !appt.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition(string(appt.Status), string(target))
	}

	err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, target)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrStaleStatus) {
			current, loadErr := s.load(ctx, appt.ID)
			if loadErr != nil {
				return nil, loadErr
			}
			if target == model.StatusConfirmed && current.Status == target {
				return current, nil
			}
			return nil, apperrors.InvalidTransition(string(current.Status), string(target))
		}
		s.cfg.Log.Error("Failed to update appointment status",
			"appointment_id", appt.ID,
			"from", appt.Status,
			"to", target,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update appointment status", err)
	}

	appt.Status = target
	appt.UpdatedAt = time.Now().UTC()
	return appt, nil
}

// slotEnd computes the moment the appointment's slot ends. The doctor's
// availability spec supplies the time zone; if the spec is gone, UTC is the
// fallback.
func (s *lifecycleService) slotEnd(ctx context.Context, appt *model.Appointment) (time.Time, error) {
	loc := time.UTC
	if spec, err := s.schedules.GetByDoctor(ctx, appt.DoctorID); err == nil {
		loc = spec.Location()
	} else if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return time.Time{}, err
	}

	day, err := calendar.ParseDate(appt.Date, loc)
	if err != nil {
		return time.Time{}, apperrors.Internal("Stored appointment has an invalid date", err)
	}
	endMinute, err := calendar.MinuteOfDay(appt.EndTime)
	if err != nil {
		return time.Time{}, apperrors.Internal("Stored appointment has an invalid end time", err)
	}
	return calendar.At(day, endMinute), nil
}

func (s *lifecycleService) load(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmenterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to load appointment", "appointment_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appt, nil
}
