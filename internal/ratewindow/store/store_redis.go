package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/ratewindow"
)

const redisKeyPrefix = "rw:identity:"

// RedisStore keeps the window as a sorted set per identity, scored by
// timestamp. Recommended for multi-instance deployments where the limiter
// must see a shared view.
type RedisStore struct {
	client *redis.Client
	// retention bounds key lifetime; entries only need to survive one
	// window, so keys expire after 2x the longest expected window.
	retention time.Duration
}

// NewRedis constructs a Redis-backed window store.
func NewRedis(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) CountSince(ctx context.Context, identityID string, windowStart time.Time) (int, error) {
	key := redisKeyPrefix + identityID

	// Drop expired members first so ZCARD reflects the live window.
	cutoff := strconv.FormatInt(windowStart.UnixNano()-1, 10)
	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", cutoff)
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count window members: %w", err)
	}
	return int(card.Val()), nil
}

func (s *RedisStore) Insert(ctx context.Context, entry ratewindow.Entry) error {
	key := redisKeyPrefix + entry.IdentityID

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(entry.OccurredAt.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert window member: %w", err)
	}
	return nil
}
