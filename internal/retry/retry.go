// Package retry provides a bounded exponential backoff helper used by the
// per-batch consumer handlers. Retries are synchronous; when the attempt
// budget is exhausted the last error is returned and the caller decides
// whether to drop the item.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy matches the pipeline-wide defaults: three retries, 1s base,
// 60s ceiling.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 60 * time.Second}
}

// Backoff returns the wait before the given attempt (1-based), with jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	// Jitter in [d/2, d] keeps concurrent consumers from retrying in lockstep
	// without exceeding the ceiling.
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(half+1))
}

// Do runs fn until it succeeds, the attempt budget is spent, or ctx is done.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
