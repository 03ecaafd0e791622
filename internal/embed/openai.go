package embed

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/retry"
)

var openaiDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIProvider is the fallback embedding backend. When the configured
// vector dimension differs from the model's native one, the request asks the
// API to truncate so both providers stay dimension-compatible.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	dimension   int
	batchSize   int
	rateLimiter *rate.Limiter
	policy      retry.Policy
}

func NewOpenAIProvider(cfg *config.Config) (*OpenAIProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY for fallback embeddings")
	}

	dimension := cfg.VectorDim
	if dimension <= 0 {
		dimension = openaiDimensions[cfg.OpenAIEmbeddingsModel]
	}

	return &OpenAIProvider{
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		model:       cfg.OpenAIEmbeddingsModel,
		dimension:   dimension,
		batchSize:   cfg.ProviderBatchSize,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.ProviderRPM)/60.0), maxInt(1, cfg.ProviderRPM/10)),
		policy: retry.Policy{
			MaxRetries: cfg.ProviderMaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   cfg.ProviderMaxBackoff,
		},
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Dimension() int { return p.dimension }

func (p *OpenAIProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := minInt(start+p.batchSize, len(texts))
		vectors, err := p.embedSubBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *OpenAIProvider) embedSubBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	err := retry.Do(ctx, p.policy, func() error {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		req := openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(p.model),
		}
		if native, ok := openaiDimensions[p.model]; ok && p.dimension != native {
			req.Dimensions = p.dimension
		}

		resp, err := p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	return vectors, nil
}

func (p *OpenAIProvider) Close() error { return nil }
