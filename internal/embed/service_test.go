package embed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/internal/vectorstore"
	"opportunity-finder/models"
)

func testEmbedConfig() *config.Config {
	return &config.Config{
		EmbedMinTextLength: 10,
		MaxTextLength:      8000,
		ItemMaxRetries:     0,
		BatchSize:          50,
	}
}

func messageFor(t *testing.T, item models.CleanItem) bus.Message {
	t.Helper()
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal item: %v", err)
	}
	return bus.Message{ID: "1-0", Key: item.SourceType, Data: data}
}

func newEmbedService(t *testing.T, provider Provider) (*Service, *vectorstore.MemoryStore) {
	t.Helper()
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		t.Fatalf("init metrics: %v", err)
	}
	store := vectorstore.NewMemoryStore()
	return NewService(testEmbedConfig(), nil, provider, store, metrics), store
}

func TestProcessBatchUpsertsVectors(t *testing.T) {
	provider := &fakeProvider{name: "fake", dim: 4}
	svc, store := newEmbedService(t, provider)

	item := models.CleanItem{
		ID:               "reddit_1",
		SourceType:       "reddit",
		CleanedText:      "A long enough text about invoice automation.",
		ProcessedAt:      time.Now().UTC(),
		ProcessorVersion: "1.0",
		Keywords:         []models.Keyword{{Keyword: "invoice automation"}},
	}
	svc.processBatch(context.Background(), []bus.Message{messageFor(t, item)})

	rec, err := store.Get(context.Background(), "reddit_1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if rec == nil {
		t.Fatal("vector not stored")
	}
	if len(rec.Vector) != 4 {
		t.Errorf("got dimension %d, want 4", len(rec.Vector))
	}
	if rec.Payload["source_type"] != "reddit" {
		t.Errorf("payload missing source_type: %v", rec.Payload)
	}
}

func TestProcessBatchSkipsShortText(t *testing.T) {
	provider := &fakeProvider{name: "fake", dim: 4}
	svc, store := newEmbedService(t, provider)

	item := models.CleanItem{ID: "reddit_2", SourceType: "reddit", CleanedText: "short"}
	svc.processBatch(context.Background(), []bus.Message{messageFor(t, item)})

	if provider.calls != 0 {
		t.Errorf("provider called for an all-skipped batch")
	}
	rec, _ := store.Get(context.Background(), "reddit_2")
	if rec != nil {
		t.Fatal("short item must not be embedded")
	}
}

func TestProcessBatchDropsOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{name: "fake", dim: 4, err: errors.New("all providers down")}
	svc, store := newEmbedService(t, provider)

	item := models.CleanItem{
		ID:          "reddit_3",
		SourceType:  "reddit",
		CleanedText: "A long enough text about something painful.",
	}
	svc.processBatch(context.Background(), []bus.Message{messageFor(t, item)})

	rec, _ := store.Get(context.Background(), "reddit_3")
	if rec != nil {
		t.Fatal("failed batch must not reach the store")
	}
}

func TestProcessBatchIgnoresMalformedMessages(t *testing.T) {
	provider := &fakeProvider{name: "fake", dim: 4}
	svc, store := newEmbedService(t, provider)

	good := models.CleanItem{
		ID:          "reddit_4",
		SourceType:  "reddit",
		CleanedText: "A long enough text about a market gap.",
	}
	msgs := []bus.Message{
		{ID: "1-0", Data: []byte("not json")},
		messageFor(t, good),
	}
	svc.processBatch(context.Background(), msgs)

	rec, _ := store.Get(context.Background(), "reddit_4")
	if rec == nil {
		t.Fatal("well-formed item lost because a sibling was malformed")
	}
}
