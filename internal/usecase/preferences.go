package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

var (
	// ErrPreferencesNotFound indicates an update for a user without stored preferences.
	ErrPreferencesNotFound = errors.New("preferences not found")
	// ErrInvalidTheme indicates a theme outside light, dark and system.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidLanguage indicates an unsupported language tag.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrEmptyPreferencesUpdate indicates an update request that changes nothing.
	ErrEmptyPreferencesUpdate = errors.New("no preference fields to update")
)

// PreferencesInput carries optional theme and language values as received from clients.
type PreferencesInput struct {
	Theme    *string
	Language *string
}

// PreferencesService reads and writes per-user UI preferences with a write-through cache.
type PreferencesService struct {
	preferences port.PreferencesRepository
	snapshots   snapshotCache
	logger      *zap.Logger
	ttl         time.Duration
	now         func() time.Time
}

// NewPreferencesService constructs a PreferencesService.
func NewPreferencesService(preferences port.PreferencesRepository, cache port.Cache, logger *zap.Logger) *PreferencesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesService{
		preferences: preferences,
		snapshots:   newSnapshotCache(cache, nil, logger),
		logger:      logger,
		ttl:         defaultPreferencesTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithTTL overrides the cache expiry.
func (s *PreferencesService) WithTTL(ttl time.Duration) *PreferencesService {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithMetrics records cache hits and misses.
func (s *PreferencesService) WithMetrics(metrics port.CacheMetrics) *PreferencesService {
	if metrics != nil {
		s.snapshots.metrics = metrics
	}
	return s
}

// WithClock overrides the internal clock for deterministic tests.
func (s *PreferencesService) WithClock(clock func() time.Time) *PreferencesService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// GetUserPreferences returns nil without error when the user has not saved preferences yet.
func (s *PreferencesService) GetUserPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	var cached domain.UserPreferences
	if s.snapshots.load(ctx, preferencesCacheName, userID, &cached) {
		return &cached, nil
	}

	prefs, err := s.preferences.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	s.snapshots.store(ctx, preferencesCacheName, userID, prefs, s.ttl)
	return prefs, nil
}

// UpsertUserPreferences creates or updates the user's row. Omitted fields keep their stored value,
// or the defaults system and zh-CN for a new row.
func (s *PreferencesService) UpsertUserPreferences(ctx context.Context, userID string, input PreferencesInput) (*domain.UserPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	update, err := parsePreferencesInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	prefs := domain.UserPreferences{
		ID:        uuid.NewString(),
		UserID:    userID,
		Theme:     domain.ThemeSystem,
		Language:  domain.LanguageChinese,
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.preferences.GetByUser(ctx, userID)
	switch {
	case err == nil:
		prefs.ID = existing.ID
		prefs.Theme = existing.Theme
		prefs.Language = existing.Language
		prefs.CreatedAt = existing.CreatedAt
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	if update.Theme != nil {
		prefs.Theme = *update.Theme
	}
	if update.Language != nil {
		prefs.Language = *update.Language
	}

	stored, err := s.preferences.Upsert(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	if err := s.snapshots.writeThrough(ctx, preferencesCacheName, userID, stored, s.ttl); err != nil {
		return nil, fmt.Errorf("write preferences cache: %w", err)
	}
	return stored, nil
}

// UpdateUserPreferences changes an existing row and writes it through to the cache.
func (s *PreferencesService) UpdateUserPreferences(ctx context.Context, userID string, input PreferencesInput) (*domain.UserPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	update, err := parsePreferencesInput(input)
	if err != nil {
		return nil, err
	}
	if update.Theme == nil && update.Language == nil {
		return nil, ErrEmptyPreferencesUpdate
	}

	updated, err := s.preferences.Update(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}

	if err := s.snapshots.writeThrough(ctx, preferencesCacheName, userID, updated, s.ttl); err != nil {
		return nil, fmt.Errorf("write preferences cache: %w", err)
	}
	return updated, nil
}

func parsePreferencesInput(input PreferencesInput) (domain.PreferencesUpdate, error) {
	var update domain.PreferencesUpdate
	if input.Theme != nil {
		theme, ok := domain.ParseTheme(*input.Theme)
		if !ok {
			return update, ErrInvalidTheme
		}
		update.Theme = &theme
	}
	if input.Language != nil {
		language, ok := domain.ParseLanguage(*input.Language)
		if !ok {
			return update, ErrInvalidLanguage
		}
		update.Language = &language
	}
	return update, nil
}
