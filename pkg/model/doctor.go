package model

import "time"

type DoctorStatus string

const (
	DoctorPending  DoctorStatus = "pending"
	DoctorApproved DoctorStatus = "approved"
	DoctorRejected DoctorStatus = "rejected"
)

// Doctor carries the approval flag and the current consultation fee. The fee
// here is the live price; committed appointments keep their own copy.
type Doctor struct {
	ID              string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email           string       `json:"email" bson:"email" validate:"required,email"`
	Specialty       string       `json:"specialty,omitempty" bson:"specialty" validate:"omitempty,min=2,max=100"`
	ConsultationFee float64      `json:"consultation_fee" bson:"consultation_fee" validate:"min=0"`
	Status          DoctorStatus `json:"status" bson:"status" validate:"required,oneof=pending approved rejected"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
}
