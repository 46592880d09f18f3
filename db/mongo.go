package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"melodex/config"
)

// ConnectMongo establishes a connection to the catalog store and verifies it
// with a ping. The returned client must be closed via Disconnect on shutdown.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(cfg.MongoDB), nil
}

// EnsureIndexes creates the unique indexes the catalog invariants rely on.
// The unique title index is the backstop for concurrent create races: two
// callers can both pass the pre-check, but only one insert succeeds.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		"songs":      {Keys: bson.D{{Key: "title", Value: 1}}, Options: unique},
		"users":      {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		"playlists":  {Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		"categories": {Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
	}

	for collection, model := range indexes {
		if _, err := database.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", collection, err)
		}
	}

	// userName uniqueness is separate from the email index.
	userNameIndex := mongo.IndexModel{Keys: bson.D{{Key: "userName", Value: 1}}, Options: unique}
	if _, err := database.Collection("users").Indexes().CreateOne(ctx, userNameIndex); err != nil {
		return fmt.Errorf("failed to create userName index: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection.
func Disconnect(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
