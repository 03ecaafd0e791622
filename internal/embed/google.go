package embed

import (
	"context"
	"fmt"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/retry"
)

// googleDimensions maps embedding models to their vector length.
var googleDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// GoogleProvider generates embeddings with the Google Generative AI API.
type GoogleProvider struct {
	client      *genai.Client
	model       string
	batchSize   int
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	policy      retry.Policy
}

func NewGoogleProvider(ctx context.Context, cfg *config.Config) (*GoogleProvider, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GoogleEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.ProviderRPM)*0.9/60.0), maxInt(1, cfg.ProviderRPM/10))

	return &GoogleProvider{
		client:      client,
		model:       cfg.GoogleEmbeddingsModel,
		batchSize:   cfg.ProviderBatchSize,
		rateLimiter: limiter,
		breaker:     breaker,
		policy: retry.Policy{
			MaxRetries: cfg.ProviderMaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   cfg.ProviderMaxBackoff,
		},
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Dimension() int {
	if d, ok := googleDimensions[p.model]; ok {
		return d
	}
	return 768
}

func (p *GoogleProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("google-embeddings")
	ctx, span := tracer.Start(ctx, "google.embed_batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("embed.texts", len(texts)),
		attribute.String("embed.model", p.model),
	)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := minInt(start+p.batchSize, len(texts))
		vectors, err := p.embedSubBatch(ctx, texts[start:end])
		if err != nil {
			span.SetAttributes(attribute.Bool("embed.error", true))
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *GoogleProvider) embedSubBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	err := retry.Do(ctx, p.policy, func() error {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		result, err := p.breaker.Execute(func() (interface{}, error) {
			em := p.client.EmbeddingModel(p.model)
			batch := em.NewBatch()
			for _, text := range texts {
				batch.AddContent(genai.Text(text))
			}
			resp, err := em.BatchEmbedContents(ctx, batch)
			if err != nil {
				return nil, err
			}
			if len(resp.Embeddings) != len(texts) {
				return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
			}
			vecs := make([][]float32, len(resp.Embeddings))
			for i, e := range resp.Embeddings {
				vecs[i] = e.Values
			}
			return vecs, nil
		})
		if err != nil {
			return err
		}

		vectors = result.([][]float32)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("google embeddings: %w", err)
	}
	return vectors, nil
}

func (p *GoogleProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
