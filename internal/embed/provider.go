// Package embed generates embedding vectors through a primary/fallback
// provider chain and persists them into the vector store.
package embed

import "context"

// Provider is one embedding backend. Implementations own their rate limiting,
// sub-batching and bounded retry; an error from GenerateEmbeddings means the
// provider has already exhausted its own budget.
type Provider interface {
	// GenerateEmbeddings returns exactly one vector per input text, in order.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed length of every vector this provider returns.
	Dimension() int
	// Name identifies the provider in logs and metrics.
	Name() string
	// Close releases provider resources.
	Close() error
}
