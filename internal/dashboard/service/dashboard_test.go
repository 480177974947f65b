package service

import (
	"context"
	"testing"
	"time"

	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

type mockAppointmentSource struct {
	findFunc  func(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error)
	countFunc func(ctx context.Context) (map[model.AppointmentStatus]int64, error)
	lastFrom  string
	lastTo    string
}

func (m *mockAppointmentSource) FindByDoctorBetween(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error) {
	m.lastFrom = fromDate
	m.lastTo = toDate
	if m.findFunc != nil {
		return m.findFunc(ctx, doctorID, fromDate, toDate)
	}
	return nil, nil
}

func (m *mockAppointmentSource) CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return map[model.AppointmentStatus]int64{}, nil
}

type mockDoctorCounts struct {
	countFunc func(ctx context.Context) (map[model.DoctorStatus]int64, error)
}

func (m *mockDoctorCounts) CountByStatus(ctx context.Context) (map[model.DoctorStatus]int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return map[model.DoctorStatus]int64{}, nil
}

type mockScheduleSource struct {
	getFunc func(ctx context.Context, doctorID string) (*model.Availability, error)
}

func (m *mockScheduleSource) GetByDoctor(ctx context.Context, doctorID string) (*model.Availability, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, doctorID)
	}
	return &model.Availability{DoctorID: doctorID, TimeZone: "UTC"}, nil
}

const testDoctorID = "507f1f77bcf86cd799439011"

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

type fixture struct {
	appointments *mockAppointmentSource
	doctors      *mockDoctorCounts
	schedules    *mockScheduleSource
	svc          *dashboardService
}

func newFixture() *fixture {
	f := &fixture{
		appointments: &mockAppointmentSource{},
		doctors:      &mockDoctorCounts{},
		schedules:    &mockScheduleSource{},
	}
	f.svc = &dashboardService{
		appointments: f.appointments,
		doctors:      f.doctors,
		schedules:    f.schedules,
		cfg:          testConfig(),
		// Wednesday 2025-06-18, 15:00 UTC.
		now: func() time.Time {
			return time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
		},
	}
	return f
}

func TestAppointments_TodayWindow(t *testing.T) {
	f := newFixture()

	schedule, err := f.svc.Appointments(context.Background(), testDoctorID, "today")
	if err != nil {
		t.Fatalf("Appointments() failed: %v", err)
	}
	if f.appointments.lastFrom != "2025-06-18" || f.appointments.lastTo != "2025-06-18" {
		t.Errorf("today window = [%s, %s], want single day 2025-06-18",
			f.appointments.lastFrom, f.appointments.lastTo)
	}
	if schedule.From != "2025-06-18" || schedule.To != "2025-06-18" {
		t.Errorf("schedule window = [%s, %s]", schedule.From, schedule.To)
	}
}

func TestAppointments_WeekWindowIsMondayToSunday(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Appointments(context.Background(), testDoctorID, "week"); err != nil {
		t.Fatalf("Appointments() failed: %v", err)
	}
	if f.appointments.lastFrom != "2025-06-16" || f.appointments.lastTo != "2025-06-22" {
		t.Errorf("week window = [%s, %s], want [2025-06-16, 2025-06-22]",
			f.appointments.lastFrom, f.appointments.lastTo)
	}
}

func TestAppointments_WindowInDoctorTimeZone(t *testing.T) {
	f := newFixture()
	f.schedules.getFunc = func(ctx context.Context, doctorID string) (*model.Availability, error) {
		return &model.Availability{DoctorID: doctorID, TimeZone: "Pacific/Auckland"}, nil
	}
	// 15:00 UTC on Wednesday is already Thursday 2025-06-19 in Auckland.
	if _, err := f.svc.Appointments(context.Background(), testDoctorID, "today"); err != nil {
		t.Fatalf("Appointments() failed: %v", err)
	}
	if f.appointments.lastFrom != "2025-06-19" {
		t.Errorf("today in Auckland = %s, want 2025-06-19", f.appointments.lastFrom)
	}
}

func TestAppointments_BucketsByStatus(t *testing.T) {
	f := newFixture()
	f.appointments.findFunc = func(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{ID: "a1", Status: model.StatusPending},
			{ID: "a2", Status: model.StatusConfirmed},
			{ID: "a3", Status: model.StatusConfirmed},
			{ID: "a4", Status: model.StatusCompleted},
			{ID: "a5", Status: model.StatusCancelled},
		}, nil
	}

	schedule, err := f.svc.Appointments(context.Background(), testDoctorID, "today")
	if err != nil {
		t.Fatalf("Appointments() failed: %v", err)
	}
	if len(schedule.Pending) != 1 || len(schedule.Confirmed) != 2 ||
		len(schedule.Completed) != 1 || len(schedule.Cancelled) != 1 {
		t.Errorf("buckets = %d/%d/%d/%d, want 1/2/1/1",
			len(schedule.Pending), len(schedule.Confirmed),
			len(schedule.Completed), len(schedule.Cancelled))
	}
}

func TestRevenue_CountsOnlyCompleted(t *testing.T) {
	f := newFixture()
	f.appointments.findFunc = func(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{ID: "a1", Status: model.StatusCompleted, ConsultationFee: 250},
			{ID: "a2", Status: model.StatusCompleted, ConsultationFee: 300},
			{ID: "a3", Status: model.StatusConfirmed, ConsultationFee: 900},
			{ID: "a4", Status: model.StatusPending, ConsultationFee: 900},
			{ID: "a5", Status: model.StatusCancelled, ConsultationFee: 900},
		}, nil
	}

	revenue, err := f.svc.Revenue(context.Background(), testDoctorID, "week")
	if err != nil {
		t.Fatalf("Revenue() failed: %v", err)
	}
	if revenue.Completed != 2 {
		t.Errorf("Completed = %d, want 2", revenue.Completed)
	}
	if revenue.Total != 550 {
		t.Errorf("Total = %v, want 550 (only completed appointments earn)", revenue.Total)
	}
}

func TestRevenue_EmptyWindow(t *testing.T) {
	f := newFixture()

	revenue, err := f.svc.Revenue(context.Background(), testDoctorID, "today")
	if err != nil {
		t.Fatalf("Revenue() failed: %v", err)
	}
	if revenue.Completed != 0 || revenue.Total != 0 {
		t.Errorf("empty window revenue = %d/%v, want 0/0", revenue.Completed, revenue.Total)
	}
}

func TestWindow_InvalidInputs(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Appointments(context.Background(), "", "today"); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("empty doctor ID: error = %v, want INVALID_INPUT", err)
	}
	if _, err := f.svc.Appointments(context.Background(), testDoctorID, "month"); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("bad scope: error = %v, want INVALID_INPUT", err)
	}
}

func TestAdminOverview(t *testing.T) {
	f := newFixture()
	f.doctors.countFunc = func(ctx context.Context) (map[model.DoctorStatus]int64, error) {
		return map[model.DoctorStatus]int64{
			model.DoctorPending:  2,
			model.DoctorApproved: 5,
		}, nil
	}
	f.appointments.countFunc = func(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
		return map[model.AppointmentStatus]int64{
			model.StatusPending:   4,
			model.StatusConfirmed: 7,
			model.StatusCompleted: 31,
			model.StatusCancelled: 3,
		}, nil
	}

	overview, err := f.svc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("AdminOverview() failed: %v", err)
	}
	if overview.Doctors[model.DoctorApproved] != 5 {
		t.Errorf("approved doctors = %d, want 5", overview.Doctors[model.DoctorApproved])
	}
	if overview.Appointments[model.StatusCompleted] != 31 {
		t.Errorf("completed appointments = %d, want 31", overview.Appointments[model.StatusCompleted])
	}
	if overview.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not stamped")
	}
}
