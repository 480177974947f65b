package model

import "time"

// SlotLock is an advisory lock serializing booking attempts against one slot.
// The lock ID encodes the composite slot key, so a duplicate-key error on
// insert means another booking for the same slot is in flight.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
