// Package vectorstore provides a backend-agnostic embedding store with
// cosine-similarity search. Backend choice is a pure configuration switch;
// all implementations honor identical semantics.
package vectorstore

import (
	"context"
	"fmt"

	"opportunity-finder/internal/config"
)

// Record is one stored embedding with its metadata payload.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// SearchResult is one similarity hit, ranked by descending cosine similarity.
type SearchResult struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// CollectionInfo summarizes the backing collection.
type CollectionInfo struct {
	Name   string `json:"name"`
	Count  int64  `json:"count"`
	Status string `json:"status"`
}

// Store is the uniform vector store contract.
type Store interface {
	// Upsert stores the vector idempotently; the latest write wins.
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error
	// SearchSimilar returns up to limit hits ranked by descending cosine
	// similarity. A non-nil scoreThreshold filters lower-scoring hits.
	SearchSimilar(ctx context.Context, vector []float32, limit int, scoreThreshold *float64) ([]SearchResult, error)
	// Get returns the stored record, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Record, error)
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// CollectionInfo returns collection statistics.
	CollectionInfo(ctx context.Context) (*CollectionInfo, error)
	// Close releases backend resources.
	Close() error
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return NewQdrantStore(ctx, cfg)
	case "pgvector":
		db, err := config.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		return NewPgVectorStore(ctx, db, cfg.VectorDim)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.VectorBackend)
	}
}
