package port

import (
	"context"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

// PreferencesRepository persists one preferences row per user.
type PreferencesRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.UserPreferences, error)
	Upsert(ctx context.Context, prefs domain.UserPreferences) (*domain.UserPreferences, error)
	Update(ctx context.Context, userID string, update domain.PreferencesUpdate) (*domain.UserPreferences, error)
}
