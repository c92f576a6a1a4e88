package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const defaultCounterPrefix = "counter"

// CounterCacheRepository keeps counter values as Redis integers keyed by owner and name.
type CounterCacheRepository struct {
	client *red.Client
	prefix string
}

// NewCounterCacheRepository constructs the counter cache. An empty prefix falls back to "counter".
func NewCounterCacheRepository(client *red.Client, keyPrefix string) *CounterCacheRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultCounterPrefix
	}
	return &CounterCacheRepository{client: client, prefix: prefix}
}

var _ port.CounterCache = (*CounterCacheRepository)(nil)

// Get returns the cached value, or repository.ErrNotFound when absent.
func (r *CounterCacheRepository) Get(ctx context.Context, userID, name string) (int64, error) {
	key, err := r.key(userID, name)
	if err != nil {
		return 0, err
	}

	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("redis get counter: %w", err)
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cached counter: %w", err)
	}
	return value, nil
}

// Set overwrites the cached value and its expiry.
func (r *CounterCacheRepository) Set(ctx context.Context, userID, name string, value int64, ttl time.Duration) error {
	key, err := r.key(userID, name)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	if err := r.client.Set(ctx, key, strconv.FormatInt(value, 10), ttl).Err(); err != nil {
		return fmt.Errorf("redis set counter: %w", err)
	}
	return nil
}

// Delete drops the cached value.
func (r *CounterCacheRepository) Delete(ctx context.Context, userID, name string) error {
	key, err := r.key(userID, name)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del counter: %w", err)
	}
	return nil
}

// IncrementBy seeds an absent entry with seed, adds delta and refreshes the expiry inside one
// MULTI/EXEC block so concurrent callers observe distinct results.
func (r *CounterCacheRepository) IncrementBy(ctx context.Context, userID, name string, delta, seed int64, ttl time.Duration) (int64, error) {
	key, err := r.key(userID, name)
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive")
	}

	var incr *red.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.SetNX(ctx, key, strconv.FormatInt(seed, 10), ttl)
		incr = pipe.IncrBy(ctx, key, delta)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis increment counter: %w", err)
	}

	return incr.Val(), nil
}

func (r *CounterCacheRepository) key(userID, name string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("counter name is required")
	}
	return fmt.Sprintf("%s:%s:%s", r.prefix, userID, name), nil
}
