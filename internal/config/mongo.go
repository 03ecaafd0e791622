package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	scoresCollection := db.Collection("opportunity_scores")
	scoreIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "source_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "total_score", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "scored_at", Value: -1}},
		},
	}
	if _, err := scoresCollection.Indexes().CreateMany(context.Background(), scoreIndexes); err != nil {
		return err
	}

	samplesCollection := db.Collection("training_samples")
	sampleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "opportunity_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	if _, err := samplesCollection.Indexes().CreateMany(context.Background(), sampleIndexes); err != nil {
		return err
	}

	feedbackCollection := db.Collection("outcome_feedback")
	feedbackIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "opportunity_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "occurred_at", Value: -1}},
		},
	}
	if _, err := feedbackCollection.Indexes().CreateMany(context.Background(), feedbackIndexes); err != nil {
		return err
	}

	return nil
}
