package model

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// CanTransitionTo encodes the lifecycle state machine:
// pending -> confirmed|cancelled, confirmed -> completed|cancelled,
// cancelled and completed are terminal.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusCompleted || target == StatusCancelled
	default:
		return false
	}
}

// CountsAgainstCapacity reports whether an appointment in this status occupies
// a seat in its slot. Cancellation frees capacity immediately because the
// booked count is always derived from live status, never cached.
func (s AppointmentStatus) CountsAgainstCapacity() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CapacityStatuses enumerates the statuses that occupy a seat, in the form
// query filters need. Derived from CountsAgainstCapacity so the capacity rule
// lives in exactly one place.
func CapacityStatuses() []AppointmentStatus {
	all := []AppointmentStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}
	held := make([]AppointmentStatus, 0, 2)
	for _, s := range all {
		if s.CountsAgainstCapacity() {
			held = append(held, s)
		}
	}
	return held
}

// Appointment is a committed booking. Rows are never deleted; cancellation is
// a status change so audit and revenue history survive.
type Appointment struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID  string            `json:"doctor_id" bson:"doctor_id" validate:"required,mongodb"`
	PatientID string            `json:"patient_id" bson:"patient_id" validate:"required,mongodb"`
	Date      string            `json:"date" bson:"date" validate:"required,calendar_date"`
	StartTime string            `json:"start_time" bson:"start_time" validate:"required,clock_time"`
	EndTime   string            `json:"end_time" bson:"end_time" validate:"required,clock_time"`
	Reason    string            `json:"reason" bson:"reason" validate:"required,min=2,max=500"`
	// ConsultationFee is copied from the doctor at booking time so later fee
	// changes never reprice existing bookings.
	ConsultationFee float64           `json:"consultation_fee" bson:"consultation_fee" validate:"min=0"`
	Status          AppointmentStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// BookingRequest is the validated input for creating an appointment.
type BookingRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,mongodb"`
	PatientID string `json:"patient_id" validate:"required,mongodb"`
	Date      string `json:"date" validate:"required,calendar_date"`
	StartTime string `json:"start_time" validate:"required,clock_time"`
	EndTime   string `json:"end_time" validate:"required,clock_time"`
	Reason    string `json:"reason" validate:"required,min=2,max=500"`
}
