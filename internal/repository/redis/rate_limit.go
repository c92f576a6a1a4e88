package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	red "github.com/redis/go-redis/v9"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
)

const defaultRateLimitPrefix = "rate_limit"

// RateLimitRepository keeps one sorted set of request timestamps per identifier.
type RateLimitRepository struct {
	client *red.Client
	prefix string
}

// NewRateLimitRepository constructs a repository using the provided Redis client and key prefix.
func NewRateLimitRepository(client *red.Client, keyPrefix string) *RateLimitRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}
	return &RateLimitRepository{client: client, prefix: prefix}
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)

// Hit purges entries older than now-window, records the current request, counts the window and
// refreshes the key expiry in a single MULTI/EXEC block. Scores are unix milliseconds.
func (r *RateLimitRepository) Hit(ctx context.Context, identifier string, window time.Duration, now time.Time) (int, error) {
	if strings.TrimSpace(identifier) == "" {
		return 0, errors.New("identifier is required")
	}
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := r.key(identifier)
	nowMs := now.UnixMilli()
	windowStart := nowMs - window.Milliseconds()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	var card *red.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(windowStart, 10))
		pipe.ZAdd(ctx, key, red.Z{Score: float64(nowMs), Member: member})
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, expirySeconds(window))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis rate limit hit: %w", err)
	}

	return int(card.Val()), nil
}

func (r *RateLimitRepository) key(identifier string) string {
	return fmt.Sprintf("%s:%s", r.prefix, identifier)
}

// expirySeconds rounds the window up to whole seconds for EXPIRE.
func expirySeconds(window time.Duration) time.Duration {
	rounded := window.Truncate(time.Second)
	if rounded < window {
		rounded += time.Second
	}
	if rounded < time.Second {
		rounded = time.Second
	}
	return rounded
}
