package service

import (
	"context"
	"errors"
	"fmt"

	appointmenterrors "medbook/internal/appointments/errors"
	"medbook/internal/appointments/repository"
	"medbook/internal/appointments/validator"
	doctorerrors "medbook/internal/doctors/errors"
	"medbook/internal/events"
	"medbook/pkg/calendar"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
	"medbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// SlotResolver re-derives the slot a booking request targets against the
// doctor's live availability spec.
type SlotResolver interface {
	ResolveSlot(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error)
}

// DoctorDirectory is the slice of the doctor registry the booking engine
// needs: existence, approval status, and the current consultation fee.
type DoctorDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
}

type BookingService interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
}

type bookingService struct {
	repo      repository.AppointmentRepository
	locks     repository.SlotLockRepository
	slots     SlotResolver
	doctors   DoctorDirectory
	publisher events.Publisher
	validator *validator.AppointmentValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.AppointmentRepository,
	locks repository.SlotLockRepository,
	slots SlotResolver,
	doctors DoctorDirectory,
	publisher events.Publisher,
	v *validator.AppointmentValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locks:     locks,
		slots:     slots,
		doctors:   doctors,
		publisher: publisher,
		validator: v,
		cfg:       cfg,
	}
}

// Book commits a booking. The capacity check and the insert happen inside one
// transaction, under an advisory per-slot lock, so two requests racing for the
// last seat cannot both commit. Capacity is recounted from live appointment
// status at commit time; nothing about occupancy is trusted from earlier
// reads.
func (s *bookingService) Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	s.sanitize(req)

	if err := s.validator.ValidateBookingRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed",
			"doctor_id", req.DoctorID,
			"patient_id", req.PatientID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	doctor, err := s.doctors.FindByID(ctx, req.DoctorID)
	if err != nil {
		return nil, translateDoctorErr(err, req.DoctorID)
	}
	if doctor.Status != model.DoctorApproved {
		return nil, apperrors.Conflict("Doctor is not accepting appointments")
	}

	slot, err := s.slots.ResolveSlot(ctx, req.DoctorID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	status := model.StatusPending
	if s.cfg.BookingAutoConfirm {
		status = model.StatusConfirmed
	}

	appt := &model.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		Date:            slot.Date,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Reason:          req.Reason,
		ConsultationFee: doctor.ConsultationFee,
		Status:          status,
	}

	lockID := repository.SlotLockID(slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime)
	if err := s.locks.Acquire(ctx, lockID, s.cfg.SlotLockTTL); err != nil {
		if errors.Is(err, repository.ErrSlotLocked) {
			return nil, apperrors.Conflict("Another booking for this slot is in progress, retry shortly")
		}
		s.cfg.Log.Error("Failed to acquire slot lock", "lock_id", lockID, "error", err)
		return nil, apperrors.Internal("Failed to reserve the slot for booking", err)
	}
	defer s.locks.Release(context.WithoutCancel(ctx), lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booked, err := s.repo.CountBySlot(sessCtx, slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime)
		if err != nil {
			return apperrors.Internal("Failed to count slot occupancy", err)
		}
		if booked >= int64(slot.Capacity) {
			return apperrors.SlotFull(
				fmt.Sprintf("Slot %s %s-%s is fully booked", slot.Date, slot.StartTime, slot.EndTime),
				map[string]any{
					"capacity": slot.Capacity,
					"booked":   booked,
				})
		}

		if err := s.checkDoubleBooking(sessCtx, req); err != nil {
			return err
		}

		if err := s.repo.Create(sessCtx, appt); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Booking transaction failed",
			"doctor_id", req.DoctorID,
			"patient_id", req.PatientID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to commit booking", err)
	}

	s.cfg.Log.Info("Appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"date", appt.Date,
		"start_time", appt.StartTime,
		"status", appt.Status,
	)
	s.publisher.Publish(ctx, events.AppointmentBooked, appt.ID, appt)

	return appt, nil
}

// checkDoubleBooking rejects the request if the patient already holds a
// non-cancelled appointment with this doctor whose time range overlaps the
// requested one. Runs inside the booking transaction.
func (s *bookingService) checkDoubleBooking(ctx context.Context, req *model.BookingRequest) error {
	existing, err := s.repo.FindActiveByPatient(ctx, req.DoctorID, req.PatientID, req.Date)
	if err != nil {
		return apperrors.Internal("Failed to check for double booking", err)
	}
	if len(existing) == 0 {
		return nil
	}

	// Validated upstream, the parses cannot fail here.
	reqStart, _ := calendar.MinuteOfDay(req.StartTime)
	reqEnd, _ := calendar.MinuteOfDay(req.EndTime)

	for _, other := range existing {
		otherStart, err := calendar.MinuteOfDay(other.StartTime)
		if err != nil {
			continue
		}
		otherEnd, err := calendar.MinuteOfDay(other.EndTime)
		if err != nil {
			continue
		}
		if calendar.Overlaps(reqStart, reqEnd, otherStart, otherEnd) {
			return apperrors.DoubleBooking(fmt.Sprintf(
				"Patient already has an appointment with this doctor overlapping %s %s-%s",
				req.Date, req.StartTime, req.EndTime))
		}
	}
	return nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*model.Appointment, error) {
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
		s.cfg.Log.Error("Failed to get appointment", "appointment_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appt, nil
}

func translateDoctorErr(err error, id string) error {
	if errors.Is(err, doctorerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Doctor", id)
	}
	if errors.Is(err, doctorerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid doctor ID format")
	}
	return apperrors.Internal("Failed to look up doctor", err)
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.Reason = sanitizer.CollapseWhitespace(req.Reason)
	req.StartTime = sanitizer.CanonicalClock(req.StartTime)
	req.EndTime = sanitizer.CanonicalClock(req.EndTime)
}
