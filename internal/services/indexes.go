package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures indexes for the journals and reminders collections.
// Called on startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byCollection := map[string][]mongo.IndexModel{
		// owner lookup, newest first
		JournalsCollection: {
			{
				Keys: bson.D{
					{Key: "userEmail", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_owner_created"),
			},
		},
		RemindersCollection: {
			// full scan of Active reminders every tick
			{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_status"),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("idx_email"),
			},
		},
	}

	for name, models := range byCollection {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
