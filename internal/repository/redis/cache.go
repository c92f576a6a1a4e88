package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const defaultCachePrefix = "cache"

// CacheRepository stores serialised snapshots under a shared key prefix.
type CacheRepository struct {
	client *red.Client
	prefix string
}

// NewCacheRepository constructs the snapshot cache. An empty prefix falls back to "cache".
func NewCacheRepository(client *red.Client, keyPrefix string) *CacheRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	return &CacheRepository{client: client, prefix: prefix}
}

var _ port.Cache = (*CacheRepository)(nil)

// Get returns the cached value or repository.ErrNotFound on a miss.
func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	fullKey, err := r.key(key)
	if err != nil {
		return "", err
	}

	value, err := r.client.Get(ctx, fullKey).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", fullKey, err)
	}
	return value, nil
}

// Set stores value with the given expiry.
func (r *CacheRepository) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	fullKey, err := r.key(key)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	if err := r.client.Set(ctx, fullKey, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", fullKey, err)
	}
	return nil
}

// Delete removes the entry. Missing keys are not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	fullKey, err := r.key(key)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", fullKey, err)
	}
	return nil
}

func (r *CacheRepository) key(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("cache key is required")
	}
	return fmt.Sprintf("%s:%s", r.prefix, key), nil
}
