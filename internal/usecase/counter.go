package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const tracerName = "github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"

var (
	// ErrCounterNotFound indicates the counter does not exist or belongs to another user.
	ErrCounterNotFound = errors.New("counter not found")
	// ErrCounterNameRequired indicates a create request without a usable name.
	ErrCounterNameRequired = errors.New("counter name is required")
	// ErrUserIDRequired indicates a call without an authenticated owner.
	ErrUserIDRequired = errors.New("user id is required")
)

// CounterTTLs configures cache expiries used by CounterService.
type CounterTTLs struct {
	List    time.Duration
	Counter time.Duration
}

// CounterService keeps counter rows, the per-user list snapshot and the per-counter cache coherent.
type CounterService struct {
	counters     port.CounterRepository
	counterCache port.CounterCache
	snapshots    snapshotCache
	events       port.EventPublisher
	logger       *zap.Logger
	ttls         CounterTTLs
	tracer       trace.Tracer
	now          func() time.Time
}

// NewCounterService constructs a CounterService.
func NewCounterService(
	counters port.CounterRepository,
	cache port.Cache,
	counterCache port.CounterCache,
	events port.EventPublisher,
	logger *zap.Logger,
) *CounterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterService{
		counters:     counters,
		counterCache: counterCache,
		snapshots:    newSnapshotCache(cache, nil, logger),
		events:       events,
		logger:       logger,
		ttls:         CounterTTLs{List: defaultListTTL, Counter: defaultCounterTTL},
		tracer:       otel.Tracer(tracerName),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithTTLs overrides cache expiries; non-positive values keep the defaults.
func (s *CounterService) WithTTLs(ttls CounterTTLs) *CounterService {
	if ttls.List > 0 {
		s.ttls.List = ttls.List
	}
	if ttls.Counter > 0 {
		s.ttls.Counter = ttls.Counter
	}
	return s
}

// WithMetrics records cache hits and misses on the list snapshot.
func (s *CounterService) WithMetrics(metrics port.CacheMetrics) *CounterService {
	if metrics != nil {
		s.snapshots.metrics = metrics
	}
	return s
}

// WithClock overrides the internal clock for deterministic tests.
func (s *CounterService) WithClock(clock func() time.Time) *CounterService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// GetUserCounters returns the user's counters, newest first, from the list snapshot when present.
func (s *CounterService) GetUserCounters(ctx context.Context, userID string) (_ []domain.Counter, err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.GetUserCounters")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	var cached []domain.Counter
	if s.snapshots.load(ctx, counterListCacheName, userID, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	counters, err := s.counters.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}

	s.snapshots.store(ctx, counterListCacheName, userID, counters, s.ttls.List)
	return counters, nil
}

// GetCounter loads a single counter owned by ownerID. The per-counter cache holds the latest
// incremented value, so a cached entry overrides the stored one.
func (s *CounterService) GetCounter(ctx context.Context, ownerID, id string) (_ *domain.Counter, err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.GetCounter", trace.WithAttributes(attribute.String("counter.id", id)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}

	counter, err := s.counters.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, fmt.Errorf("load counter: %w", err)
	}

	if s.counterCache == nil {
		return counter, nil
	}

	value, err := s.counterCache.Get(ctx, ownerID, counter.Name)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		counter.Value = value
	case errors.Is(err, repository.ErrNotFound):
		span.SetAttributes(attribute.Bool("cache.hit", false))
	default:
		s.logger.Warn("counter cache read failed, using stored value", zap.String("counter_id", id), zap.Error(err))
	}
	return counter, nil
}

// CreateCounter inserts a counter owned by ownerID. The per-counter cache entry is not populated.
func (s *CounterService) CreateCounter(ctx context.Context, ownerID, name string, initialValue int64) (_ *domain.Counter, err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.CreateCounter")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCounterNameRequired
	}

	now := s.now()
	created, err := s.counters.Create(ctx, domain.Counter{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Name:      name,
		Value:     initialValue,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	span.SetAttributes(attribute.String("counter.id", created.ID))

	if err := s.snapshots.invalidate(ctx, counterListCacheName, ownerID); err != nil {
		return nil, fmt.Errorf("invalidate counter list cache: %w", err)
	}

	s.publish(ctx, domain.CounterActionCreated, created, 0)
	return created, nil
}

// UpdateCounter applies update to a counter owned by ownerID and writes a new value through to the
// per-counter cache.
func (s *CounterService) UpdateCounter(ctx context.Context, ownerID, id string, update domain.CounterUpdate) (_ *domain.Counter, err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.UpdateCounter", trace.WithAttributes(attribute.String("counter.id", id)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}

	updated, err := s.counters.Update(ctx, ownerID, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, fmt.Errorf("update counter: %w", err)
	}

	if update.Value != nil && s.counterCache != nil {
		if err := s.counterCache.Set(ctx, ownerID, updated.Name, updated.Value, s.ttls.Counter); err != nil {
			s.logger.Error("counter cache write-through failed", zap.String("counter_id", id), zap.Error(err))
			return nil, fmt.Errorf("write counter cache: %w", err)
		}
	}

	if err := s.snapshots.invalidate(ctx, counterListCacheName, ownerID); err != nil {
		return nil, fmt.Errorf("invalidate counter list cache: %w", err)
	}

	s.publish(ctx, domain.CounterActionUpdated, updated, 0)
	return updated, nil
}

// DeleteCounter removes a counter owned by ownerID together with its cache entries.
func (s *CounterService) DeleteCounter(ctx context.Context, ownerID, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.DeleteCounter", trace.WithAttributes(attribute.String("counter.id", id)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return ErrUserIDRequired
	}

	counter, err := s.counters.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCounterNotFound
		}
		return fmt.Errorf("load counter: %w", err)
	}

	if err := s.counters.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCounterNotFound
		}
		return fmt.Errorf("delete counter: %w", err)
	}

	if err := s.snapshots.invalidate(ctx, counterListCacheName, ownerID); err != nil {
		return fmt.Errorf("invalidate counter list cache: %w", err)
	}
	if s.counterCache != nil {
		if err := s.counterCache.Delete(ctx, ownerID, counter.Name); err != nil {
			s.logger.Error("counter cache delete failed", zap.String("counter_id", id), zap.Error(err))
			return fmt.Errorf("delete counter cache: %w", err)
		}
	}

	s.publish(ctx, domain.CounterActionDeleted, counter, 0)
	return nil
}

// IncrementCounter adds delta through the atomic per-counter cache and persists the result. A
// missing cache entry is seeded from the row inside the same transaction. Concurrent increments
// yield distinct cache results but their row writes may land out of order.
func (s *CounterService) IncrementCounter(ctx context.Context, ownerID, id string, delta int64) (_ *domain.Counter, err error) {
	ctx, span := s.tracer.Start(ctx, "CounterService.IncrementCounter", trace.WithAttributes(
		attribute.String("counter.id", id),
		attribute.Int64("counter.delta", delta),
	))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}
	if s.counterCache == nil {
		return nil, fmt.Errorf("counter cache not configured")
	}

	counter, err := s.counters.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, fmt.Errorf("load counter: %w", err)
	}

	value, err := s.counterCache.IncrementBy(ctx, ownerID, counter.Name, delta, counter.Value, s.ttls.Counter)
	if err != nil {
		return nil, fmt.Errorf("increment counter cache: %w", err)
	}

	updated, err := s.counters.Update(ctx, ownerID, id, domain.CounterUpdate{Value: &value})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, fmt.Errorf("persist incremented counter: %w", err)
	}

	if err := s.snapshots.invalidate(ctx, counterListCacheName, ownerID); err != nil {
		return nil, fmt.Errorf("invalidate counter list cache: %w", err)
	}

	s.publish(ctx, domain.CounterActionIncremented, updated, delta)
	return updated, nil
}

func (s *CounterService) publish(ctx context.Context, action domain.CounterAction, counter *domain.Counter, delta int64) {
	if s.events == nil || counter == nil {
		return
	}

	event := domain.CounterChangedEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		CounterID:  counter.ID,
		UserID:     counter.UserID,
		Name:       counter.Name,
		Value:      counter.Value,
		Delta:      delta,
		OccurredAt: s.now(),
	}
	if err := s.events.PublishCounterChanged(ctx, event); err != nil {
		s.logger.Warn("publish counter event failed",
			zap.String("counter_id", counter.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
