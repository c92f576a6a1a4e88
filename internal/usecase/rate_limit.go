package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
)

var (
	// ErrInvalidRateLimit indicates a limiter call with an unusable identifier, limit or window.
	ErrInvalidRateLimit = errors.New("invalid rate limit parameters")
)

// RateLimitService evaluates sliding window limits against the shared store.
type RateLimitService struct {
	store port.RateLimitStore
	now   func() time.Time
}

// NewRateLimitService constructs a RateLimitService.
func NewRateLimitService(store port.RateLimitStore) *RateLimitService {
	return &RateLimitService{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *RateLimitService) WithClock(clock func() time.Time) *RateLimitService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// CheckLimit records the request and reports whether it fits in the window. The request is
// counted before evaluation, so the request that reaches limit exactly is still allowed and
// rejected requests keep occupying the window.
func (s *RateLimitService) CheckLimit(ctx context.Context, identifier string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if strings.TrimSpace(identifier) == "" {
		return domain.RateLimitDecision{}, fmt.Errorf("%w: identifier is required", ErrInvalidRateLimit)
	}
	if limit <= 0 {
		return domain.RateLimitDecision{}, fmt.Errorf("%w: limit must be positive", ErrInvalidRateLimit)
	}
	if window < time.Second {
		return domain.RateLimitDecision{}, fmt.Errorf("%w: window must be at least one second", ErrInvalidRateLimit)
	}
	if s.store == nil {
		return domain.RateLimitDecision{}, fmt.Errorf("rate limit store not configured")
	}

	now := s.now().Truncate(time.Second)
	window = window.Truncate(time.Second)

	count, err := s.store.Hit(ctx, identifier, window, now)
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("record rate limit hit: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return domain.RateLimitDecision{
		Allowed:   count <= limit,
		Limit:     limit,
		Count:     count,
		Remaining: remaining,
		ResetTime: now.Add(window),
	}, nil
}
