package service

import (
	"context"
	"time"

	"medbook/pkg/calendar"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	httputil "medbook/pkg/http"
	"medbook/pkg/model"
)

// AppointmentSource is the read side of the appointment store the dashboard
// queries run against.
type AppointmentSource interface {
	FindByDoctorBetween(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error)
	CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error)
}

// DoctorCounts supplies registry totals for the admin overview.
type DoctorCounts interface {
	CountByStatus(ctx context.Context) (map[model.DoctorStatus]int64, error)
}

// ScheduleSource supplies the doctor's time zone so "today" and "this week"
// mean the doctor's today, not the server's.
type ScheduleSource interface {
	GetByDoctor(ctx context.Context, doctorID string) (*model.Availability, error)
}

// Schedule is a doctor's appointment list over a window, bucketed by status.
type Schedule struct {
	DoctorID  string               `json:"doctor_id"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Pending   []*model.Appointment `json:"pending"`
	Confirmed []*model.Appointment `json:"confirmed"`
	Completed []*model.Appointment `json:"completed"`
	Cancelled []*model.Appointment `json:"cancelled"`
}

// Revenue sums consultation fees over a window. Only completed appointments
// earn; pending, confirmed and cancelled all contribute zero.
type Revenue struct {
	DoctorID  string  `json:"doctor_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Completed int     `json:"completed"`
	Total     float64 `json:"total"`
}

// Overview is the admin snapshot of registry and booking totals.
type Overview struct {
	Doctors      map[model.DoctorStatus]int64      `json:"doctors"`
	Appointments map[model.AppointmentStatus]int64 `json:"appointments"`
	GeneratedAt  time.Time                         `json:"generated_at"`
}

type DashboardService interface {
	Appointments(ctx context.Context, doctorID, scope string) (*Schedule, error)
	Revenue(ctx context.Context, doctorID, scope string) (*Revenue, error)
	AdminOverview(ctx context.Context) (*Overview, error)
}

type dashboardService struct {
	appointments AppointmentSource
	doctors      DoctorCounts
	schedules    ScheduleSource
	cfg          *config.Config
	now          func() time.Time
}

func NewDashboardService(
	appointments AppointmentSource,
	doctors DoctorCounts,
	schedules ScheduleSource,
	cfg *config.Config,
) DashboardService {
	return &dashboardService{
		appointments: appointments,
		doctors:      doctors,
		schedules:    schedules,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *dashboardService) Appointments(ctx context.Context, doctorID, scope string) (*Schedule, error) {
	fromDate, toDate, err := s.window(ctx, doctorID, scope)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.FindByDoctorBetween(ctx, doctorID, fromDate, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor schedule",
			"doctor_id", doctorID,
			"from", fromDate,
			"to", toDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load appointments", err)
	}

	schedule := &Schedule{
		DoctorID:  doctorID,
		From:      fromDate,
		To:        toDate,
		Pending:   []*model.Appointment{},
		Confirmed: []*model.Appointment{},
		Completed: []*model.Appointment{},
		Cancelled: []*model.Appointment{},
	}
	for _, appt := range appts {
		switch appt.Status {
		case model.StatusPending:
			schedule.Pending = append(schedule.Pending, appt)
		case model.StatusConfirmed:
			schedule.Confirmed = append(schedule.Confirmed, appt)
		case model.StatusCompleted:
			schedule.Completed = append(schedule.Completed, appt)
		case model.StatusCancelled:
			schedule.Cancelled = append(schedule.Cancelled, appt)
		}
	}
	return schedule, nil
}

func (s *dashboardService) Revenue(ctx context.Context, doctorID, scope string) (*Revenue, error) {
	fromDate, toDate, err := s.window(ctx, doctorID, scope)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.FindByDoctorBetween(ctx, doctorID, fromDate, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to load revenue window",
			"doctor_id", doctorID,
			"from", fromDate,
			"to", toDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}

	revenue := &Revenue{
		DoctorID: doctorID,
		From:     fromDate,
		To:       toDate,
	}
	for _, appt := range appts {
		if appt.Status != model.StatusCompleted {
			continue
		}
		revenue.Completed++
		revenue.Total += appt.ConsultationFee
	}
	return revenue, nil
}

func (s *dashboardService) AdminOverview(ctx context.Context) (*Overview, error) {
	doctorCounts, err := s.doctors.CountByStatus(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count doctors", "error", err)
		return nil, apperrors.Internal("Failed to build overview", err)
	}
	apptCounts, err := s.appointments.CountByStatus(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count appointments", "error", err)
		return nil, apperrors.Internal("Failed to build overview", err)
	}

	return &Overview{
		Doctors:      doctorCounts,
		Appointments: apptCounts,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// window resolves a scope name into the inclusive [from, to] date range, in
// the doctor's time zone when a published spec provides one.
func (s *dashboardService) window(ctx context.Context, doctorID, scope string) (string, string, error) {
	if doctorID == "" {
		return "", "", apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	loc := time.UTC
	if spec, err := s.schedules.GetByDoctor(ctx, doctorID); err == nil {
		loc = spec.Location()
	} else if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return "", "", err
	}

	now := s.now().In(loc)
	var from, end time.Time
	switch scope {
	case httputil.ScopeToday:
		from, end = calendar.StartOfDay(now), calendar.EndOfDay(now)
	case httputil.ScopeWeek:
		from, end = calendar.StartOfWeek(now), calendar.EndOfWeek(now)
	default:
		return "", "", apperrors.InvalidInput("invalid scope parameter: " + scope + " (expected today|week)")
	}

	// The repository range is inclusive on date strings, so step back from the
	// half-open end to the last covered day.
	return from.Format(calendar.DateLayout), end.AddDate(0, 0, -1).Format(calendar.DateLayout), nil
}
