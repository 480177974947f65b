package main

import (
	"context"

	appointmentrepo "medbook/internal/appointments/repository"
	availabilityrepo "medbook/internal/availability/repository"
	doctorrepo "medbook/internal/doctors/repository"
	"medbook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Creates the indexes the booking path depends on. Idempotent; safe to run on
// every deploy.
func main() {
	cfg := config.Load("medbook-migrate")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)

	migrations := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			collection: appointmentrepo.CollectionName,
			models: []mongo.IndexModel{
				{
					// Serves the commit-time capacity count and slot occupancy reads.
					Keys: bson.D{
						{Key: "doctor_id", Value: 1},
						{Key: "date", Value: 1},
						{Key: "start_time", Value: 1},
						{Key: "end_time", Value: 1},
						{Key: "status", Value: 1},
					},
					Options: options.Index().SetName("slot_occupancy"),
				},
				{
					// Serves the double-booking check.
					Keys: bson.D{
						{Key: "doctor_id", Value: 1},
						{Key: "patient_id", Value: 1},
						{Key: "date", Value: 1},
					},
					Options: options.Index().SetName("patient_day"),
				},
			},
		},
		{
			collection: appointmentrepo.SlotLockCollectionName,
			models: []mongo.IndexModel{
				{
					// Locks orphaned by a crash expire on their own.
					Keys:    bson.D{{Key: "expires_at", Value: 1}},
					Options: options.Index().SetName("lock_ttl").SetExpireAfterSeconds(0),
				},
			},
		},
		{
			collection: availabilityrepo.CollectionName,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "doctor_id", Value: 1}},
					Options: options.Index().SetName("doctor_spec").SetUnique(true),
				},
			},
		},
		{
			collection: doctorrepo.CollectionName,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetName("doctor_email").SetUnique(true),
				},
			},
		},
	}

	for _, m := range migrations {
		names, err := db.Collection(m.collection).Indexes().CreateMany(ctx, m.models)
		if err != nil {
			cfg.Log.Fatal("Failed to create indexes", "collection", m.collection, "error", err)
		}
		cfg.Log.Info("Indexes ensured", "collection", m.collection, "indexes", names)
	}

	cfg.Log.Info("Migration complete")
}
