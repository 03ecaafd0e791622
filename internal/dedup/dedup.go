// Package dedup wraps the shared Redis key-value store used to drop raw items
// that were already processed. Processing is at-least-once, so the check must
// be a single atomic check-and-set rather than an exists-then-set pair.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// MarkSeen records the item and reports whether this call was the first
// sighting. SET NX EX is atomic, so concurrent consumers agree on exactly one
// winner.
func (s *Store) MarkSeen(ctx context.Context, sourceType, itemID string) (bool, error) {
	key := fmt.Sprintf("scraped:%s:%s", sourceType, itemID)
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup setnx %s: %w", key, err)
	}
	return ok, nil
}

// Seen reports whether the item was already recorded, without claiming it.
func (s *Store) Seen(ctx context.Context, sourceType, itemID string) (bool, error) {
	key := fmt.Sprintf("scraped:%s:%s", sourceType, itemID)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup exists %s: %w", key, err)
	}
	return n > 0, nil
}
