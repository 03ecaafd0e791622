package normalize

import (
	"context"
	"time"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/dedup"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/retry"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/models"
)

// ProcessorVersion is stamped on every CleanItem this service publishes.
const ProcessorVersion = "1.0"

const stage = "normalizer"

// Service consumes raw item batches, normalizes them and republishes clean
// items keyed by source type. One Service instance owns a fixed partition set
// of the raw topic under the normalizer consumer group.
type Service struct {
	cfg       *config.Config
	consumer  *bus.Consumer
	publisher *bus.Publisher
	dedup     *dedup.Store
	text      *TextProcessor
	entities  *EntityExtractor
	keywords  *KeywordExtractor
	metrics   *telemetry.Metrics
	policy    retry.Policy
}

func NewService(cfg *config.Config, consumer *bus.Consumer, publisher *bus.Publisher, dd *dedup.Store, metrics *telemetry.Metrics) *Service {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.ItemMaxRetries

	return &Service{
		cfg:       cfg,
		consumer:  consumer,
		publisher: publisher,
		dedup:     dd,
		text:      NewTextProcessor(cfg),
		entities:  NewEntityExtractor(),
		keywords:  NewKeywordExtractor(cfg.MaxKeywords),
		metrics:   metrics,
		policy:    policy,
	}
}

// Run consumes until ctx is cancelled. The in-flight batch always completes
// and is acknowledged before return.
func (s *Service) Run(ctx context.Context) error {
	if err := s.consumer.EnsureGroups(ctx); err != nil {
		return err
	}

	logger.Info("Normalizer started",
		"group", s.cfg.NormalizerGroup,
		"partitions", s.cfg.BusPartitions,
		"batch_size", s.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Normalizer stopping")
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

		// Processing one message never aborts the rest of the batch. Shutdown
		// waits for the batch: each item runs under Background so an already
		// cancelled ctx cannot strand half-processed messages unacked.
		batchCtx := context.Background()
		for i := range msgs {
			s.processMessage(batchCtx, &msgs[i])
		}

		if err := s.consumer.Ack(batchCtx, msgs...); err != nil {
			logger.Error("Ack failed", "error", err, "count", len(msgs))
		}

		s.metrics.RecordBatch(stage, time.Since(start).Seconds(), len(msgs))
	}
}

func (s *Service) processMessage(ctx context.Context, msg *bus.Message) {
	var raw models.RawItem
	if err := msg.Decode(&raw); err != nil {
		logger.Debug("Dropping malformed raw item", "id", msg.ID, "error", err)
		s.metrics.RecordDropped(stage, "malformed")
		return
	}
	if raw.ID == "" || raw.SourceType == "" {
		logger.Debug("Dropping raw item without id or source_type", "id", msg.ID)
		s.metrics.RecordDropped(stage, "malformed")
		return
	}

	// Atomic claim; losing the race means another consumer already handled it.
	var first bool
	err := retry.Do(ctx, s.policy, func() error {
		var derr error
		first, derr = s.dedup.MarkSeen(ctx, raw.SourceType, raw.ID)
		return derr
	})
	if err != nil {
		logger.Error("Dedup store unavailable, dropping item", "id", raw.ID, "error", err)
		s.metrics.RecordDropped(stage, "dedup_unavailable")
		return
	}
	if !first {
		logger.Debug("Duplicate raw item", "id", raw.ID, "source_type", raw.SourceType)
		s.metrics.RecordDeduplicated(raw.SourceType)
		return
	}

	clean, dropReason := s.buildCleanItem(&raw)
	if dropReason != "" {
		logger.Debug("Dropping raw item", "id", raw.ID, "reason", dropReason)
		s.metrics.RecordDropped(stage, dropReason)
		return
	}

	// Same key as the input preserves per-source ordering downstream.
	err = retry.Do(ctx, s.policy, func() error {
		return s.publisher.Publish(ctx, clean.SourceType, clean)
	})
	if err != nil {
		logger.Error("Publish failed after retries, dropping item", "id", raw.ID, "error", err)
		s.metrics.RecordDropped(stage, "publish_failed")
		return
	}

	logger.Debug("Processed raw item", "id", raw.ID, "source_type", raw.SourceType)
}

// buildCleanItem runs the pure normalization steps. A non-empty drop reason
// marks a data-quality rejection that must not be retried.
func (s *Service) buildCleanItem(raw *models.RawItem) (*models.CleanItem, string) {
	content := ExtractTextContent(raw)
	if content == "" {
		return nil, "no_text_content"
	}

	cleaned := s.text.CleanText(content)
	if cleaned == "" {
		return nil, "empty_after_cleaning"
	}

	if !s.text.IsSupportedLanguage(cleaned) {
		return nil, "unsupported_language"
	}

	return &models.CleanItem{
		ID:               raw.ID,
		SourceType:       raw.SourceType,
		CleanedText:      cleaned,
		Entities:         s.entities.ExtractEntities(cleaned),
		Keywords:         s.keywords.ExtractKeywords(cleaned),
		ProcessedAt:      time.Now().UTC(),
		ProcessorVersion: ProcessorVersion,
		OriginalData:     raw.RawData,
	}, ""
}
