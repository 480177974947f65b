package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrStaleStatus means a conditional status write matched nothing because
	// the appointment moved on under the caller's feet.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
)
