package repository

import (
	"context"
	"fmt"
	"time"

	"medbook/pkg/config"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SlotLockCollectionName = "SlotLocks"
)

// ErrSlotLocked means another booking attempt holds the advisory lock for the
// same slot right now.
var ErrSlotLocked = fmt.Errorf("slot is locked by another booking attempt")

type SlotLockRepository interface {
	Acquire(ctx context.Context, lockID string, ttl time.Duration) error
	Release(ctx context.Context, lockID string)
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(SlotLockCollectionName),
	}
}

// SlotLockID builds the advisory lock key from the composite slot identity.
func SlotLockID(doctorID, date, startTime, endTime string) string {
	return fmt.Sprintf("slot_lock_%s_%s_%s_%s", doctorID, date, startTime, endTime)
}

// Acquire inserts a lock document keyed by the slot identity. The unique _id
// index turns a concurrent attempt into a duplicate-key error, which maps to
// ErrSlotLocked. A TTL index on expires_at reaps locks orphaned by a crash.
func (r *mongoSlotLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.SlotLock{
		ID:        lockID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotLocked
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return nil
}

// Release deletes the lock. Failures are logged and swallowed: the TTL index
// cleans up anything left behind.
func (r *mongoSlotLockRepository) Release(ctx context.Context, lockID string) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		r.cfg.Log.Warn("Failed to release slot lock, TTL will reap it",
			"lock_id", lockID,
			"error", err,
		)
	}
}
