package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"medbook/internal/appointments/repository"
	"medbook/internal/appointments/validator"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockAppointmentRepository struct {
	createFunc              func(ctx context.Context, appt *model.Appointment) error
	findByIDFunc            func(ctx context.Context, id string) (*model.Appointment, error)
	countBySlotFunc         func(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error)
	findActiveByPatientFunc func(ctx context.Context, doctorID, patientID, date string) ([]*model.Appointment, error)
	updateStatusFunc        func(ctx context.Context, id string, from, to model.AppointmentStatus) error
	executeTransactionFunc  func(ctx context.Context, fn mongotx.TransactionFunc) error

	created []*model.Appointment
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, appt); err != nil {
			return err
		}
	}
	if appt.ID == "" {
		appt.ID = "507f1f77bcf86cd799439055"
	}
	m.created = append(m.created, appt)
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) CountBySlot(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error) {
	if m.countBySlotFunc != nil {
		return m.countBySlotFunc(ctx, doctorID, date, startTime, endTime)
	}
	return 0, nil
}

func (m *mockAppointmentRepository) FindActiveByPatient(ctx context.Context, doctorID, patientID, date string) ([]*model.Appointment, error) {
	if m.findActiveByPatientFunc != nil {
		return m.findActiveByPatientFunc(ctx, doctorID, patientID, date)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockAppointmentRepository) FindByDoctorBetween(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockSlotLockRepository struct {
	mu         sync.Mutex
	acquireErr error
	acquired   []string
	released   []string
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return m.acquireErr
	}
	m.acquired = append(m.acquired, lockID)
	return nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, lockID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, lockID)
}

type mockSlotResolver struct {
	resolveFunc func(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error)
	lastStart   string
	lastEnd     string
}

func (m *mockSlotResolver) ResolveSlot(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
	m.lastStart = startTime
	m.lastEnd = endTime
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, doctorID, date, startTime, endTime)
	}
	return &model.Slot{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Capacity:  3,
	}, nil
}

type mockDoctorDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Doctor, error)
}

func (m *mockDoctorDirectory) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Doctor{
		ID:              id,
		Name:            "Dr. Levin",
		Email:           "levin@clinic.example",
		ConsultationFee: 250,
		Status:          model.DoctorApproved,
	}, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []string
	keys   []string
}

func (m *mockPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	m.keys = append(m.keys, key)
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

const (
	testDoctorID  = "507f1f77bcf86cd799439011"
	testPatientID = "507f1f77bcf86cd799439022"
)

func bookingConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		SlotLockTTL: 10 * time.Second,
	}
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		DoctorID:  testDoctorID,
		PatientID: testPatientID,
		Date:      "2025-06-16",
		StartTime: "09:00",
		EndTime:   "12:00",
		Reason:    "routine checkup",
	}
}

type bookingFixture struct {
	repo      *mockAppointmentRepository
	locks     *mockSlotLockRepository
	resolver  *mockSlotResolver
	doctors   *mockDoctorDirectory
	publisher *mockPublisher
	cfg       *config.Config
	svc       BookingService
}

func newBookingFixture(cfg *config.Config) *bookingFixture {
	f := &bookingFixture{
		repo:      &mockAppointmentRepository{},
		locks:     &mockSlotLockRepository{},
		resolver:  &mockSlotResolver{},
		doctors:   &mockDoctorDirectory{},
		publisher: &mockPublisher{},
		cfg:       cfg,
	}
	f.svc = NewBookingService(
		f.repo,
		f.locks,
		f.resolver,
		f.doctors,
		f.publisher,
		validator.NewAppointmentValidator(cfg.Log),
		cfg,
	)
	return f
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestBook_Success(t *testing.T) {
	f := newBookingFixture(bookingConfig())

	appt, err := f.svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}

	if appt.Status != model.StatusPending {
		t.Errorf("initial status = %s, want pending", appt.Status)
	}
	if appt.ConsultationFee != 250 {
		t.Errorf("fee not copied from doctor: %v", appt.ConsultationFee)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(f.repo.created))
	}
	if len(f.locks.acquired) != 1 || len(f.locks.released) != 1 {
		t.Errorf("lock acquired/released = %d/%d, want 1/1", len(f.locks.acquired), len(f.locks.released))
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "appointment.booked" {
		t.Errorf("events = %v, want [appointment.booked]", f.publisher.events)
	}
}

func TestBook_AutoConfirm(t *testing.T) {
	cfg := bookingConfig()
	cfg.BookingAutoConfirm = true
	f := newBookingFixture(cfg)

	appt, err := f.svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	if appt.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want confirmed under auto-confirm", appt.Status)
	}
}

func TestBook_CanonicalizesRequestTimes(t *testing.T) {
	f := newBookingFixture(bookingConfig())

	req := validRequest()
	req.StartTime = "9:00"
	req.Reason = "  follow   up  "

	appt, err := f.svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	if f.resolver.lastStart != "09:00" {
		t.Errorf("resolver saw start %q, want canonical 09:00", f.resolver.lastStart)
	}
	if appt.StartTime != "09:00" {
		t.Errorf("stored start %q, want 09:00", appt.StartTime)
	}
	if appt.Reason != "follow up" {
		t.Errorf("reason not collapsed: %q", appt.Reason)
	}
}

func TestBook_SlotFullAtCapacity(t *testing.T) {
	capacities := []int{1, 3, 10}
	for _, capacity := range capacities {
		f := newBookingFixture(bookingConfig())
		f.resolver.resolveFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
			return &model.Slot{
				DoctorID: doctorID, Date: date,
				StartTime: startTime, EndTime: endTime,
				Capacity: capacity,
			}, nil
		}
		f.repo.countBySlotFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error) {
			return int64(capacity), nil
		}

		_, err := f.svc.Book(context.Background(), validRequest())
		if !apperrors.IsCode(err, apperrors.CodeSlotFull) {
			t.Errorf("capacity %d: error = %v, want SLOT_FULL", capacity, err)
		}
		if len(f.repo.created) != 0 {
			t.Errorf("capacity %d: insert happened despite full slot", capacity)
		}
		if len(f.publisher.events) != 0 {
			t.Errorf("capacity %d: event published for rejected booking", capacity)
		}
		if len(f.locks.released) != 1 {
			t.Errorf("capacity %d: lock not released after rejection", capacity)
		}
	}
}

func TestBook_ConcurrentBookingsNeverExceedCapacity(t *testing.T) {
	for _, capacity := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			f := newBookingFixture(bookingConfig())
			f.resolver.resolveFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
				return &model.Slot{
					DoctorID: doctorID, Date: date,
					StartTime: startTime, EndTime: endTime,
					Capacity: capacity,
				}, nil
			}

			// One mutex plays the role the slot lock and the transaction play
			// in production: the count and the insert of one attempt are
			// atomic with respect to every other attempt.
			var tx sync.Mutex
			committed := int64(0)
			f.repo.executeTransactionFunc = func(ctx context.Context, fn mongotx.TransactionFunc) error {
				tx.Lock()
				defer tx.Unlock()
				return fn(mongo.NewSessionContext(ctx, nil))
			}
			f.repo.countBySlotFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error) {
				return committed, nil
			}
			f.repo.createFunc = func(ctx context.Context, appt *model.Appointment) error {
				committed++
				return nil
			}

			attempts := capacity + 5
			var wg sync.WaitGroup
			var resMu sync.Mutex
			successes, rejected := 0, 0
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					req := validRequest()
					req.PatientID = fmt.Sprintf("%024x", i+1)

					_, err := f.svc.Book(context.Background(), req)

					resMu.Lock()
					defer resMu.Unlock()
					switch {
					case err == nil:
						successes++
					case apperrors.IsCode(err, apperrors.CodeSlotFull):
						rejected++
					default:
						t.Errorf("attempt %d: unexpected error: %v", i, err)
					}
				}(i)
			}
			wg.Wait()

			if successes != capacity {
				t.Errorf("successes = %d, want exactly %d", successes, capacity)
			}
			if rejected != attempts-capacity {
				t.Errorf("rejections = %d, want %d", rejected, attempts-capacity)
			}
			if len(f.repo.created) != capacity {
				t.Errorf("inserts = %d, capacity %d was exceeded", len(f.repo.created), capacity)
			}
		})
	}
}

func TestBook_CancellationFreesCapacity(t *testing.T) {
	f := newBookingFixture(bookingConfig())
	f.resolver.resolveFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
		return &model.Slot{
			DoctorID: doctorID, Date: date,
			StartTime: startTime, EndTime: endTime,
			Capacity: 1,
		}, nil
	}

	// The commit-time count only sees pending and confirmed rows, so a
	// cancellation shows up as a smaller count on the very next attempt.
	activeInSlot := int64(1)
	f.repo.countBySlotFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (int64, error) {
		return activeInSlot, nil
	}

	if _, err := f.svc.Book(context.Background(), validRequest()); !apperrors.IsCode(err, apperrors.CodeSlotFull) {
		t.Fatalf("expected SLOT_FULL while the seat is held, got %v", err)
	}

	activeInSlot = 0 // the holder cancelled

	if _, err := f.svc.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected booking to succeed after cancellation, got %v", err)
	}
}

func TestBook_DoubleBooking(t *testing.T) {
	f := newBookingFixture(bookingConfig())
	f.repo.findActiveByPatientFunc = func(ctx context.Context, doctorID, patientID, date string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{
				DoctorID:  doctorID,
				PatientID: patientID,
				Date:      date,
				StartTime: "10:00",
				EndTime:   "13:00",
				Status:    model.StatusConfirmed,
			},
		}, nil
	}

	_, err := f.svc.Book(context.Background(), validRequest())
	if !apperrors.IsCode(err, apperrors.CodeDoubleBooking) {
		t.Errorf("error = %v, want DOUBLE_BOOKING", err)
	}
	if len(f.repo.created) != 0 {
		t.Error("insert happened despite overlapping appointment")
	}
}

func TestBook_NonOverlappingSameDayIsAllowed(t *testing.T) {
	f := newBookingFixture(bookingConfig())
	f.repo.findActiveByPatientFunc = func(ctx context.Context, doctorID, patientID, date string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{
				DoctorID:  doctorID,
				PatientID: patientID,
				Date:      date,
				StartTime: "14:00",
				EndTime:   "17:00",
				Status:    model.StatusPending,
			},
		}, nil
	}

	if _, err := f.svc.Book(context.Background(), validRequest()); err != nil {
		t.Errorf("non-overlapping same-day booking rejected: %v", err)
	}
}

func TestBook_ConcurrentAttemptHitsLock(t *testing.T) {
	f := newBookingFixture(bookingConfig())
	f.locks.acquireErr = repository.ErrSlotLocked

	_, err := f.svc.Book(context.Background(), validRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("error = %v, want CONFLICT for a held lock", err)
	}
	if len(f.repo.created) != 0 {
		t.Error("insert happened without holding the lock")
	}
}

func TestBook_DoctorGate(t *testing.T) {
	tests := []struct {
		name     string
		status   model.DoctorStatus
		wantCode string
	}{
		{name: "pending doctor", status: model.DoctorPending, wantCode: apperrors.CodeConflict},
		{name: "rejected doctor", status: model.DoctorRejected, wantCode: apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(bookingConfig())
			f.doctors.findByIDFunc = func(ctx context.Context, id string) (*model.Doctor, error) {
				return &model.Doctor{ID: id, Status: tt.status}, nil
			}

			_, err := f.svc.Book(context.Background(), validRequest())
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Errorf("error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestBook_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *model.BookingRequest)
	}{
		{name: "missing patient", mutate: func(r *model.BookingRequest) { r.PatientID = "" }},
		{name: "malformed doctor id", mutate: func(r *model.BookingRequest) { r.DoctorID = "not-an-id" }},
		{name: "bad date", mutate: func(r *model.BookingRequest) { r.Date = "16/06/2025" }},
		{name: "bad time", mutate: func(r *model.BookingRequest) { r.StartTime = "25:00" }},
		{name: "start after end", mutate: func(r *model.BookingRequest) { r.StartTime = "13:00"; r.EndTime = "12:00" }},
		{name: "reason too short", mutate: func(r *model.BookingRequest) { r.Reason = "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(bookingConfig())
			req := validRequest()
			tt.mutate(req)

			_, err := f.svc.Book(context.Background(), req)
			if !apperrors.IsCode(err, apperrors.CodeValidation) {
				t.Errorf("error = %v, want VALIDATION_ERROR", err)
			}
			if len(f.locks.acquired) != 0 {
				t.Error("lock acquired for an invalid request")
			}
		})
	}
}

func TestBook_SlotResolutionFailurePropagates(t *testing.T) {
	f := newBookingFixture(bookingConfig())
	f.resolver.resolveFunc = func(ctx context.Context, doctorID, date, startTime, endTime string) (*model.Slot, error) {
		return nil, apperrors.SlotNotAvailable("Doctor is not available on " + date)
	}

	_, err := f.svc.Book(context.Background(), validRequest())
	if !apperrors.IsCode(err, apperrors.CodeSlotNotAvailable) {
		t.Errorf("error = %v, want SLOT_NOT_AVAILABLE", err)
	}
}
