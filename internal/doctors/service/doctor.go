package service

import (
	"context"
	"errors"
	"strings"

	doctorerrors "medbook/internal/doctors/errors"
	"medbook/internal/doctors/repository"
	"medbook/internal/events"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
	"medbook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type DoctorService interface {
	Register(ctx context.Context, doctor *model.Doctor) error
	Get(ctx context.Context, id string) (*model.Doctor, error)
	Approve(ctx context.Context, id string) (*model.Doctor, error)
	Reject(ctx context.Context, id string) (*model.Doctor, error)
}

type doctorService struct {
	repo      repository.DoctorRepository
	publisher events.Publisher
	validate  *validator.Validate
	cfg       *config.Config
}

func NewDoctorService(repo repository.DoctorRepository, publisher events.Publisher, cfg *config.Config) DoctorService {
	return &doctorService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// Register creates a doctor in pending status. A pending doctor can publish
// availability but cannot be booked until approved.
func (s *doctorService) Register(ctx context.Context, doctor *model.Doctor) error {
	doctor.ID = ""
	doctor.Name = sanitizer.CollapseWhitespace(doctor.Name)
	doctor.Email = strings.ToLower(strings.TrimSpace(doctor.Email))
	doctor.Specialty = sanitizer.CollapseWhitespace(doctor.Specialty)
	doctor.Status = model.DoctorPending

	if err := s.validate.Struct(doctor); err != nil {
		s.cfg.Log.Warn("Doctor registration validation failed", "email", doctor.Email, "error", err)
		return apperrors.Validation("Doctor registration validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, doctorerrors.ErrDuplicateEmail) {
			return apperrors.Conflict("A doctor with this email is already registered")
		}
		s.cfg.Log.Error("Failed to register doctor", "email", doctor.Email, "error", err)
		return apperrors.Internal("Failed to register doctor", err)
	}

	s.cfg.Log.Info("Doctor registered", "doctor_id", doctor.ID, "specialty", doctor.Specialty)
	return nil
}

func (s *doctorService) Get(ctx context.Context, id string) (*model.Doctor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateErr(err, id)
	}
	return doctor, nil
}

func (s *doctorService) Approve(ctx context.Context, id string) (*model.Doctor, error) {
	return s.decide(ctx, id, model.DoctorApproved, events.DoctorApproved)
}

func (s *doctorService) Reject(ctx context.Context, id string) (*model.Doctor, error) {
	return s.decide(ctx, id, model.DoctorRejected, events.DoctorRejected)
}

// decide applies an approval decision. Decisions are one-shot: only a pending
// doctor can be approved or rejected, but repeating the same decision is a
// no-op so retries succeed.
func (s *doctorService) decide(ctx context.Context, id string, target model.DoctorStatus, eventType string) (*model.Doctor, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if doctor.Status == target {
		return doctor, nil
	}
	if doctor.Status != model.DoctorPending {
		return nil, apperrors.Conflict("Doctor approval has already been decided")
	}

	if err := s.repo.UpdateStatus(ctx, id, model.DoctorPending, target); err != nil {
		if errors.Is(err, doctorerrors.ErrNotFound) {
			// Lost a race with another decision; re-read and report the winner.
			current, loadErr := s.Get(ctx, id)
			if loadErr != nil {
				return nil, loadErr
			}
			if current.Status == target {
				return current, nil
			}
			return nil, apperrors.Conflict("Doctor approval has already been decided")
		}
		s.cfg.Log.Error("Failed to update doctor status", "doctor_id", id, "to", target, "error", err)
		return nil, apperrors.Internal("Failed to update doctor status", err)
	}

	doctor.Status = target
	s.cfg.Log.Info("Doctor approval decided", "doctor_id", id, "status", target)
	s.publisher.Publish(ctx, eventType, id, doctor)
	return doctor, nil
}

func (s *doctorService) translateErr(err error, id string) error {
	if errors.Is(err, doctorerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Doctor", id)
	}
	if errors.Is(err, doctorerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid doctor ID format")
	}
	s.cfg.Log.Error("Failed to look up doctor", "doctor_id", id, "error", err)
	return apperrors.Internal("Failed to look up doctor", err)
}
