package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "medbook/internal/availability/errors"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availabilities"
)

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AvailabilityRepository interface {
	FindByDoctor(ctx context.Context, doctorID string) (*model.Availability, error)
	Replace(ctx context.Context, a *model.Availability) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoAvailabilityRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAvailabilityRepository) FindByDoctor(ctx context.Context, doctorID string) (*model.Availability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(doctorID); err != nil {
		return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, doctorID)
	}

	var a model.Availability
	err := r.collection.FindOne(ctx, bson.M{"doctor_id": doctorID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: doctor %s", availabilityerrors.ErrNotFound, doctorID)
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}

	return &a, nil
}

// Replace stores the full weekly spec as a single atomic document swap keyed
// on doctor_id. There are no partial patch semantics; the last validated spec
// wins for future slot generation.
func (r *mongoAvailabilityRepository) Replace(ctx context.Context, a *model.Availability) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	a.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var replaced model.Availability
	err := r.collection.FindOneAndReplace(ctx, bson.M{"doctor_id": a.DoctorID}, a, opts).Decode(&replaced)
	if err != nil {
		return fmt.Errorf("failed to replace availability: %w", err)
	}

	a.ID = replaced.ID
	return nil
}

func (r *mongoAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
