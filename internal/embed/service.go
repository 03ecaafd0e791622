package embed

import (
	"context"
	"time"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/retry"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/internal/vectorstore"
	"opportunity-finder/models"
)

const stage = "embedder"

// Service consumes clean item batches, generates embeddings through the
// provider chain and upserts them into the vector store. Upserts are keyed by
// item id, so redelivered messages overwrite rather than duplicate.
type Service struct {
	cfg      *config.Config
	consumer *bus.Consumer
	provider Provider
	store    vectorstore.Store
	metrics  *telemetry.Metrics
	policy   retry.Policy
}

func NewService(cfg *config.Config, consumer *bus.Consumer, provider Provider, store vectorstore.Store, metrics *telemetry.Metrics) *Service {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.ItemMaxRetries

	return &Service{
		cfg:      cfg,
		consumer: consumer,
		provider: provider,
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

	logger.Info("Embedder started",
		"group", s.cfg.EmbedderGroup,
		"partitions", s.cfg.BusPartitions,
		"provider", s.provider.Name(),
		"dim", s.provider.Dimension())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Embedder stopping")
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

		batchCtx := context.Background()
		s.processBatch(batchCtx, msgs)

		if err := s.consumer.Ack(batchCtx, msgs...); err != nil {
			logger.Error("Ack failed", "error", err, "count", len(msgs))
		}

		s.metrics.RecordBatch(stage, time.Since(start).Seconds(), len(msgs))
	}
}

// processBatch embeds all embeddable items from msgs in one provider call.
// When both providers fail the whole batch is dropped; redelivery would hit
// the same error and the pipeline must keep draining.
func (s *Service) processBatch(ctx context.Context, msgs []bus.Message) {
	items := make([]*models.CleanItem, 0, len(msgs))
	texts := make([]string, 0, len(msgs))

	for i := range msgs {
		var item models.CleanItem
		if err := msgs[i].Decode(&item); err != nil {
			logger.Debug("Dropping malformed clean item", "id", msgs[i].ID, "error", err)
			s.metrics.RecordDropped(stage, "malformed")
			continue
		}
		if item.ID == "" || item.CleanedText == "" {
			s.metrics.RecordDropped(stage, "malformed")
			continue
		}
		if len(item.CleanedText) < s.cfg.EmbedMinTextLength {
			logger.Debug("Skipping item below embed length floor", "id", item.ID, "length", len(item.CleanedText))
			s.metrics.RecordDropped(stage, "text_too_short")
			continue
		}

		text := item.CleanedText
		if len(text) > s.cfg.MaxTextLength {
			text = text[:s.cfg.MaxTextLength]
		}
		items = append(items, &item)
		texts = append(texts, text)
	}
	if len(items) == 0 {
		return
	}

	vectors, err := s.provider.GenerateEmbeddings(ctx, texts)
	if err != nil {
		logger.Error("All embedding providers failed, dropping batch",
			"count", len(items), "error", err)
		for range items {
			s.metrics.RecordDropped(stage, "embedding_failed")
		}
		return
	}
	if len(vectors) != len(items) {
		logger.Error("Provider returned wrong vector count, dropping batch",
			"want", len(items), "got", len(vectors))
		for range items {
			s.metrics.RecordDropped(stage, "embedding_failed")
		}
		return
	}

	for i, item := range items {
		if err := s.upsertItem(ctx, item, vectors[i]); err != nil {
			logger.Error("Vector upsert failed after retries", "id", item.ID, "error", err)
			s.metrics.RecordDropped(stage, "store_failed")
			continue
		}
		logger.Debug("Embedded item", "id", item.ID, "source_type", item.SourceType)
	}
}

func (s *Service) upsertItem(ctx context.Context, item *models.CleanItem, vector []float32) error {
	keywords := make([]interface{}, 0, len(item.Keywords))
	for _, kw := range item.Keywords {
		keywords = append(keywords, kw.Keyword)
	}

	payload := map[string]interface{}{
		"source_type":       item.SourceType,
		"processed_at":      item.ProcessedAt.UTC().Format(time.RFC3339),
		"processor_version": item.ProcessorVersion,
		"keywords":          keywords,
	}

	return retry.Do(ctx, s.policy, func() error {
		return s.store.Upsert(ctx, item.ID, vector, payload)
	})
}
