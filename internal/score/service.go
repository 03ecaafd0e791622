package score

import (
	"context"
	"time"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/retry"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/models"
)

const stage = "scorer"

// Service consumes clean item batches and persists one score document per
// item. Scoring itself never fails; only storage problems drop items.
type Service struct {
	cfg      *config.Config
	consumer *bus.Consumer
	engine   *Engine
	store    *Store
	metrics  *telemetry.Metrics
	policy   retry.Policy
}

func NewService(cfg *config.Config, consumer *bus.Consumer, engine *Engine, store *Store, metrics *telemetry.Metrics) *Service {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.ItemMaxRetries

	return &Service{
		cfg:      cfg,
		consumer: consumer,
		engine:   engine,
		store:    store,
		metrics:  metrics,
		policy:   policy,
	}
}

// Run consumes until ctx is cancelled. The in-flight batch always completes
// and is acknowledged before return.
func (s *Service) Run(ctx context.Context) error {
	if err := s.consumer.EnsureGroups(ctx); err != nil {
		return err
	}

	logger.Info("Scorer started",
		"group", s.cfg.ScorerGroup,
		"partitions", s.cfg.BusPartitions,
		"model_version", s.engine.ModelVersion())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scorer stopping")
			return nil
		default:
		}

		msgs, err := s.consumer.ReadBatch(ctx, s.cfg.BatchSize, s.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("Read batch failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		start := time.Now()
		s.metrics.RecordConsumed(stage, int64(len(msgs)))

		// One weight snapshot per batch; every item ranks under the same vector.
		weights := s.engine.weights.Weights()

		batchCtx := context.Background()
		for i := range msgs {
			s.processMessage(batchCtx, &msgs[i], weights)
		}

		if err := s.consumer.Ack(batchCtx, msgs...); err != nil {
			logger.Error("Ack failed", "error", err, "count", len(msgs))
		}

		s.metrics.RecordBatch(stage, time.Since(start).Seconds(), len(msgs))
	}
}

func (s *Service) processMessage(ctx context.Context, msg *bus.Message, weights map[string]float64) {
	var item models.CleanItem
	if err := msg.Decode(&item); err != nil {
		logger.Debug("Dropping malformed clean item", "id", msg.ID, "error", err)
		s.metrics.RecordDropped(stage, "malformed")
		return
	}
	if item.ID == "" {
		s.metrics.RecordDropped(stage, "malformed")
		return
	}

	result, neutral := s.engine.ScoreWith(weights, &item)
	s.metrics.RecordScore(item.SourceType, neutral)

	err := retry.Do(ctx, s.policy, func() error {
		return s.store.SaveScore(ctx, result)
	})
	if err != nil {
		logger.Error("Score save failed after retries, dropping item", "id", item.ID, "error", err)
		s.metrics.RecordDropped(stage, "store_failed")
		return
	}

	// Features are kept alongside so later outcome feedback can label them.
	features := ExtractFeatures(&item)
	err = retry.Do(ctx, s.policy, func() error {
		return s.store.SaveFeatures(ctx, item.ID, features)
	})
	if err != nil {
		logger.Error("Feature save failed", "id", item.ID, "error", err)
	}

	logger.Debug("Scored item",
		"id", item.ID,
		"source_type", item.SourceType,
		"total_score", result.TotalScore,
		"model_version", result.ModelVersion)
}
