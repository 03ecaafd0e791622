package score

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"opportunity-finder/internal/config"
	"opportunity-finder/models"
)

// Store persists scores, training samples, outcome feedback and fitted
// model sets in MongoDB.
type Store struct {
	scores   *mongo.Collection
	samples  *mongo.Collection
	feedback *mongo.Collection
	models   *mongo.Collection
}

func NewStore(client *mongo.Client, cfg *config.Config) *Store {
	db := client.Database(cfg.DBName)
	return &Store{
		scores:   db.Collection("opportunity_scores"),
		samples:  db.Collection("training_samples"),
		feedback: db.Collection("outcome_feedback"),
		models:   db.Collection("model_sets"),
	}
}

// SaveScore upserts the score document keyed by opportunity id, so rescoring
// a redelivered item overwrites the previous result.
func (s *Store) SaveScore(ctx context.Context, score *models.OpportunityScore) error {
	_, err := s.scores.ReplaceOne(ctx,
		bson.M{"_id": score.OpportunityID},
		score,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save score %s: %w", score.OpportunityID, err)
	}
	return nil
}

// GetScore returns the stored score, or (nil, nil) when absent.
func (s *Store) GetScore(ctx context.Context, opportunityID string) (*models.OpportunityScore, error) {
	var score models.OpportunityScore
	err := s.scores.FindOne(ctx, bson.M{"_id": opportunityID}).Decode(&score)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", opportunityID, err)
	}
	return &score, nil
}

// TopScores returns up to limit scores ordered by descending total score.
func (s *Store) TopScores(ctx context.Context, limit int) ([]models.OpportunityScore, error) {
	cursor, err := s.scores.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "total_score", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("list top scores: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.OpportunityScore
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode top scores: %w", err)
	}
	return out, nil
}

// SaveFeatures upserts the unlabeled training sample captured at scoring
// time. Labels stay empty until outcome feedback arrives.
func (s *Store) SaveFeatures(ctx context.Context, opportunityID string, features []float64) error {
	_, err := s.samples.UpdateOne(ctx,
		bson.M{"opportunity_id": opportunityID},
		bson.M{
			"$set":         bson.M{"features": features},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save features %s: %w", opportunityID, err)
	}
	return nil
}

// SetSampleLabels attaches dimension labels to the sample, making it usable
// for training. Returns false when no sample exists for the opportunity.
func (s *Store) SetSampleLabels(ctx context.Context, opportunityID string, labels map[string]float64) (bool, error) {
	res, err := s.samples.UpdateOne(ctx,
		bson.M{"opportunity_id": opportunityID},
		bson.M{"$set": bson.M{"labels": labels}})
	if err != nil {
		return false, fmt.Errorf("label sample %s: %w", opportunityID, err)
	}
	return res.MatchedCount > 0, nil
}

// LabeledSampleCount counts samples that carry labels.
func (s *Store) LabeledSampleCount(ctx context.Context) (int64, error) {
	n, err := s.samples.CountDocuments(ctx, bson.M{"labels": bson.M{"$exists": true, "$ne": nil}})
	if err != nil {
		return 0, fmt.Errorf("count labeled samples: %w", err)
	}
	return n, nil
}

// LabeledSamples returns the most recent labeled samples, up to limit.
func (s *Store) LabeledSamples(ctx context.Context, limit int) ([]models.TrainingSample, error) {
	cursor, err := s.samples.Find(ctx,
		bson.M{"labels": bson.M{"$exists": true, "$ne": nil}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("list labeled samples: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.TrainingSample
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode labeled samples: %w", err)
	}
	return out, nil
}

// SaveModelSet persists a fitted model set so other processes and restarts
// can pick it up.
func (s *Store) SaveModelSet(ctx context.Context, set *ModelSet) error {
	doc := bson.M{
		"version":    set.Version,
		"models":     set.Models,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.models.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("save model set %s: %w", set.Version, err)
	}
	return nil
}

// LatestModelSet returns the most recently persisted model set, or
// (nil, nil) when none was ever trained.
func (s *Store) LatestModelSet(ctx context.Context) (*ModelSet, error) {
	var set ModelSet
	err := s.models.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&set)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest model set: %w", err)
	}
	return &set, nil
}

// SaveFeedback records one outcome feedback event.
func (s *Store) SaveFeedback(ctx context.Context, fb *models.OutcomeFeedback) error {
	if _, err := s.feedback.InsertOne(ctx, fb); err != nil {
		return fmt.Errorf("save feedback %s: %w", fb.OpportunityID, err)
	}
	return nil
}
