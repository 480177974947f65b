package service

import (
	"context"
	"errors"
	"time"

	availabilityerrors "medbook/internal/availability/errors"
	"medbook/internal/availability/repository"
	"medbook/internal/availability/validator"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
	"medbook/pkg/sanitizer"
)

type AvailabilityService interface {
	ReplaceSpec(ctx context.Context, doctorID string, spec *model.Availability) error
	GetByDoctor(ctx context.Context, doctorID string) (*model.Availability, error)
	GenerateSlots(ctx context.Context, doctorID string, from, to string) ([]*model.Slot, error)
	ResolveSlot(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error)
}

// SlotCounter reports how many committed appointments occupy a slot. It is the
// same source of truth the booking engine writes to; slots carry no cached
// counters that could go stale.
type SlotCounter interface {
	CountBySlot(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error)
}

type availabilityService struct {
	repo      repository.AvailabilityRepository
	counter   SlotCounter
	validator *validator.AvailabilityValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	counter SlotCounter,
	v *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		counter:   counter,
		validator: v,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ReplaceSpec validates a full weekly schedule and swaps it in atomically.
// A booking in flight against the old spec is not invalidated; the new spec
// only governs future slot generation.
func (s *availabilityService) ReplaceSpec(ctx context.Context, doctorID string, spec *model.Availability) error {
	if doctorID == "" {
		return apperrors.InvalidInput("Doctor ID cannot be empty")
	}
	spec.DoctorID = doctorID
	s.sanitize(spec)

	if err := s.validator.Validate(spec); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"doctor_id", doctorID,
			"error", err,
		)
		return apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Replace(ctx, spec); err != nil {
		s.cfg.Log.Error("Failed to replace availability",
			"doctor_id", doctorID,
			"error", err,
		)
		return apperrors.Internal("Failed to store availability", err)
	}

	s.cfg.Log.Info("Availability replaced",
		"doctor_id", doctorID,
		"windows", len(spec.Windows),
		"days_off", len(spec.DaysOff),
		"date_exceptions", len(spec.DateExceptions),
	)
	return nil
}

func (s *availabilityService) GetByDoctor(ctx context.Context, doctorID string) (*model.Availability, error) {
	if doctorID == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	spec, err := s.repo.FindByDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", doctorID)
		}
		if errors.Is(err, availabilityerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		s.cfg.Log.Error("Failed to get availability",
			"doctor_id", doctorID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	return spec, nil
}

func (s *availabilityService) sanitize(a *model.Availability) {
	for i := range a.Windows {
		a.Windows[i].DayOfWeek = sanitizer.NormalizeWeekday(a.Windows[i].DayOfWeek)
		a.Windows[i].StartTime = sanitizer.CanonicalClock(a.Windows[i].StartTime)
		a.Windows[i].EndTime = sanitizer.CanonicalClock(a.Windows[i].EndTime)
	}
	for i := range a.DaysOff {
		a.DaysOff[i] = sanitizer.NormalizeWeekday(a.DaysOff[i])
	}
}
