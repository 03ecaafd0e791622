package embed

import (
	"context"
	"fmt"

	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/telemetry"
)

// Chain tries the primary provider and retries the entire batch on the
// fallback when the primary fails. When both fail the primary's error
// propagates to the caller, which decides whether to skip or abort.
type Chain struct {
	primary  Provider
	fallback Provider
	metrics  *telemetry.Metrics
}

func NewChain(primary, fallback Provider, metrics *telemetry.Metrics) *Chain {
	return &Chain{primary: primary, fallback: fallback, metrics: metrics}
}

func (c *Chain) Name() string { return c.primary.Name() }

// Dimension follows the primary provider. Deployments pair providers with
// matching dimensions so fallback vectors stay interchangeable.
func (c *Chain) Dimension() int { return c.primary.Dimension() }

func (c *Chain) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, primaryErr := c.primary.GenerateEmbeddings(ctx, texts)
	if primaryErr == nil {
		if c.metrics != nil {
			c.metrics.RecordEmbeddings(c.primary.Name(), int64(len(vectors)))
		}
		return vectors, nil
	}

	if c.fallback == nil {
		return nil, primaryErr
	}

	logger.Warn("Primary embedding provider failed, retrying batch on fallback",
		"primary", c.primary.Name(),
		"fallback", c.fallback.Name(),
		"batch_size", len(texts),
		"error", primaryErr)
	if c.metrics != nil {
		c.metrics.RecordFallback(c.primary.Name(), c.fallback.Name())
	}

	vectors, fallbackErr := c.fallback.GenerateEmbeddings(ctx, texts)
	if fallbackErr != nil {
		logger.Error("Fallback embedding provider also failed",
			"fallback", c.fallback.Name(),
			"error", fallbackErr)
		return nil, fmt.Errorf("primary %s failed (%v); fallback %s failed: %w",
			c.primary.Name(), primaryErr, c.fallback.Name(), fallbackErr)
	}

	if c.metrics != nil {
		c.metrics.RecordEmbeddings(c.fallback.Name(), int64(len(vectors)))
	}
	return vectors, nil
}

func (c *Chain) Close() error {
	err := c.primary.Close()
	if c.fallback != nil {
		if ferr := c.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
