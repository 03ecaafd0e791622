package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all pipeline metrics
type Metrics struct {
	ItemsConsumed       metric.Int64Counter
	ItemsDropped        metric.Int64Counter
	ItemsDeduplicated   metric.Int64Counter
	BatchDuration       metric.Float64Histogram
	EmbeddingsGenerated metric.Int64Counter
	ProviderFallbacks   metric.Int64Counter
	ScoresComputed      metric.Int64Counter
	NeutralScores       metric.Int64Counter
	BanditUpdates       metric.Int64Counter
	ModelRetrains       metric.Int64Counter
}

// InitMetrics initializes all pipeline metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("opportunity-finder")

	itemsConsumed, err := meter.Int64Counter(
		"pipeline.items.consumed",
		metric.WithDescription("Items read from the bus per stage"),
	)
	if err != nil {
		return nil, err
	}

	itemsDropped, err := meter.Int64Counter(
		"pipeline.items.dropped",
		metric.WithDescription("Items dropped per stage and reason"),
	)
	if err != nil {
		return nil, err
	}

	itemsDeduplicated, err := meter.Int64Counter(
		"pipeline.items.deduplicated",
		metric.WithDescription("Duplicate raw items short-circuited by the dedup store"),
	)
	if err != nil {
		return nil, err
	}

	batchDuration, err := meter.Float64Histogram(
		"pipeline.batch.duration",
		metric.WithDescription("Batch processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingsGenerated, err := meter.Int64Counter(
		"embedding.vectors.generated",
		metric.WithDescription("Embedding vectors generated per provider"),
	)
	if err != nil {
		return nil, err
	}

	providerFallbacks, err := meter.Int64Counter(
		"embedding.provider.fallbacks",
		metric.WithDescription("Batches retried on the fallback provider"),
	)
	if err != nil {
		return nil, err
	}

	scoresComputed, err := meter.Int64Counter(
		"scoring.scores.computed",
		metric.WithDescription("Opportunity scores computed"),
	)
	if err != nil {
		return nil, err
	}

	neutralScores, err := meter.Int64Counter(
		"scoring.scores.neutral",
		metric.WithDescription("Items that fell back to neutral all-5.0 scores"),
	)
	if err != nil {
		return nil, err
	}

	banditUpdates, err := meter.Int64Counter(
		"bandit.updates.total",
		metric.WithDescription("Weight vector updates applied"),
	)
	if err != nil {
		return nil, err
	}

	modelRetrains, err := meter.Int64Counter(
		"scoring.model.retrains",
		metric.WithDescription("Completed model retraining cycles"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ItemsConsumed:       itemsConsumed,
		ItemsDropped:        itemsDropped,
		ItemsDeduplicated:   itemsDeduplicated,
		BatchDuration:       batchDuration,
		EmbeddingsGenerated: embeddingsGenerated,
		ProviderFallbacks:   providerFallbacks,
		ScoresComputed:      scoresComputed,
		NeutralScores:       neutralScores,
		BanditUpdates:       banditUpdates,
		ModelRetrains:       modelRetrains,
	}, nil
}

// RecordConsumed records items read from the bus by one stage
func (m *Metrics) RecordConsumed(stage string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("pipeline.stage", stage),
	}
	m.ItemsConsumed.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordDropped records a dropped item with its reason
func (m *Metrics) RecordDropped(stage, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("pipeline.stage", stage),
		attribute.String("drop.reason", reason),
	}
	m.ItemsDropped.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordDeduplicated records a duplicate raw item
func (m *Metrics) RecordDeduplicated(sourceType string) {
	attrs := []attribute.KeyValue{
		attribute.String("source.type", sourceType),
	}
	m.ItemsDeduplicated.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordBatch records batch processing duration for one stage
func (m *Metrics) RecordBatch(stage string, seconds float64, size int) {
	attrs := []attribute.KeyValue{
		attribute.String("pipeline.stage", stage),
		attribute.Int("batch.size", size),
	}
	m.BatchDuration.Record(context.Background(), seconds, metric.WithAttributes(attrs...))
}

// RecordEmbeddings records generated vectors per provider
func (m *Metrics) RecordEmbeddings(provider string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("embedding.provider", provider),
	}
	m.EmbeddingsGenerated.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordFallback records a batch that was retried on the fallback provider
func (m *Metrics) RecordFallback(primary, fallback string) {
	attrs := []attribute.KeyValue{
		attribute.String("embedding.primary", primary),
		attribute.String("embedding.fallback", fallback),
	}
	m.ProviderFallbacks.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordScore records one computed score, flagging neutral fallbacks
func (m *Metrics) RecordScore(sourceType string, neutral bool) {
	attrs := []attribute.KeyValue{
		attribute.String("source.type", sourceType),
	}
	m.ScoresComputed.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	if neutral {
		m.NeutralScores.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	}
}

// RecordBanditUpdate records one weight update
func (m *Metrics) RecordBanditUpdate(explored bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("bandit.explored", explored),
	}
	m.BanditUpdates.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordRetrain records a completed retraining cycle
func (m *Metrics) RecordRetrain(samples int) {
	attrs := []attribute.KeyValue{
		attribute.Int("training.samples", samples),
	}
	m.ModelRetrains.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
