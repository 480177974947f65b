package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Bookings stay pending until confirmed unless auto-confirm is switched on.
	// This is the single global policy; it is never decided per call.
	DefaultBookingAutoConfirm = false

	// Slot generation is bounded per call to keep derivation cheap.
	DefaultSlotRangeCapDays = 60

	// Advisory slot locks auto-expire so a crashed booking cannot wedge a slot.
	DefaultSlotLockTTL = 10 * time.Second
)
