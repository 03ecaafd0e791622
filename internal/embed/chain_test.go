package embed

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	name  string
	dim   int
	err   error
	calls int
}

func (f *fakeProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dim)
		vec[0] = float32(i + 1)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeProvider) Dimension() int { return f.dim }
func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Close() error   { return nil }

func TestChainUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768}
	fallback := &fakeProvider{name: "openai", dim: 768}
	chain := NewChain(primary, fallback, nil)

	vectors, err := chain.GenerateEmbeddings(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("chain error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times while primary healthy", fallback.calls)
	}
}

func TestChainRetriesWholeBatchOnFallback(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768, err: errors.New("quota exhausted")}
	fallback := &fakeProvider{name: "openai", dim: 768}
	chain := NewChain(primary, fallback, nil)

	vectors, err := chain.GenerateEmbeddings(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("chain error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want full batch of 3", len(vectors))
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
}

func TestChainPropagatesWhenBothFail(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768, err: errors.New("primary down")}
	fallback := &fakeProvider{name: "openai", dim: 768, err: errors.New("fallback down")}
	chain := NewChain(primary, fallback, nil)

	if _, err := chain.GenerateEmbeddings(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error when both providers fail")
	}
}

func TestChainWithoutFallback(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768, err: errors.New("down")}
	chain := NewChain(primary, nil, nil)

	if _, err := chain.GenerateEmbeddings(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected primary error to propagate")
	}
}

func TestChainEmptyBatch(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768}
	chain := NewChain(primary, nil, nil)

	vectors, err := chain.GenerateEmbeddings(context.Background(), nil)
	if err != nil {
		t.Fatalf("chain error: %v", err)
	}
	if len(vectors) != 0 {
		t.Fatalf("got %d vectors for empty batch", len(vectors))
	}
	if primary.calls != 0 {
		t.Errorf("provider called for empty batch")
	}
}

func TestChainDimensionFollowsPrimary(t *testing.T) {
	primary := &fakeProvider{name: "google", dim: 768}
	fallback := &fakeProvider{name: "openai", dim: 1536}
	chain := NewChain(primary, fallback, nil)

	if got := chain.Dimension(); got != 768 {
		t.Errorf("got dimension %d, want 768", got)
	}
	if got := chain.Name(); got != "google" {
		t.Errorf("got name %q, want google", got)
	}
}
