package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// Connect establishes a connection to MongoDB and returns the target database.
// The database name comes from the URI path, falling back to defaultDB.
func Connect(ctx context.Context, mongoURI, defaultDB string) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDB
	}

	slog.Info("connected to MongoDB", "database", dbName)
	return client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the store relies on for uniqueness and lookups.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	collections := map[string][]mongo.IndexModel{
		"alerts": {
			{
				// one active alert per identified reporter
				Keys: bson.D{{Key: "reporter_id", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_reporter").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{
						"status":      "active",
						"reporter_id": bson.M{"$exists": true},
					}),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"volunteers": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "is_verified", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"response_assignments": {
			{
				Keys:    bson.D{{Key: "alert_id", Value: 1}, {Key: "volunteer_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "volunteer_id", Value: 1}, {Key: "assigned_at", Value: -1}}},
		},
		"live_locations": {
			{Keys: bson.D{{Key: "alert_id", Value: 1}, {Key: "recorded_at", Value: 1}}},
			{Keys: bson.D{{Key: "recorded_at", Value: 1}}},
		},
		"reports": {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for name, indexes := range collections {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("creating %s indexes: %w", name, err)
		}
	}
	return nil
}

// Disconnect closes the MongoDB connection
func Disconnect(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// Health checks the database connection health
func Health(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
