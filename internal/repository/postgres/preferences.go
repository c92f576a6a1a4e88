package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const preferencesTable = "user_preferences"

var preferencesColumns = []string{"id", "user_id", "theme", "language", "created_at", "updated_at"}

// PreferencesRepository persists user preferences in PostgreSQL.
type PreferencesRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewPreferencesRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPreferencesRepository(exec pgExecutor) *PreferencesRepository {
	return &PreferencesRepository{
		exec:    exec,
		builder: newBuilder(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ port.PreferencesRepository = (*PreferencesRepository)(nil)

// GetByUser returns repository.ErrNotFound when the user never saved preferences.
func (r *PreferencesRepository) GetByUser(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	stmt, args, err := r.builder.
		Select(preferencesColumns...).
		From(preferencesTable).
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select preferences sql: %w", err)
	}

	prefs, err := scanPreferences(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select preferences: %w", err)
	}
	return prefs, nil
}

// Upsert inserts the row or updates theme and language of the existing one.
func (r *PreferencesRepository) Upsert(ctx context.Context, prefs domain.UserPreferences) (*domain.UserPreferences, error) {
	if strings.TrimSpace(prefs.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	stmt, args, err := r.builder.
		Insert(preferencesTable).
		Columns(preferencesColumns...).
		Values(prefs.ID, prefs.UserID, string(prefs.Theme), string(prefs.Language), prefs.CreatedAt, prefs.UpdatedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE
            SET theme = EXCLUDED.theme,
                language = EXCLUDED.language,
                updated_at = EXCLUDED.updated_at
        RETURNING ` + strings.Join(preferencesColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert preferences sql: %w", err)
	}

	stored, err := scanPreferences(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return stored, nil
}

// Update changes the existing preferences row of userID.
func (r *PreferencesRepository) Update(ctx context.Context, userID string, update domain.PreferencesUpdate) (*domain.UserPreferences, error) {
	query := r.builder.Update(preferencesTable)
	if update.Theme != nil {
		query = query.Set("theme", string(*update.Theme))
	}
	if update.Language != nil {
		query = query.Set("language", string(*update.Language))
	}

	stmt, args, err := query.
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING " + strings.Join(preferencesColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update preferences sql: %w", err)
	}

	updated, err := scanPreferences(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return updated, nil
}

func scanPreferences(row pgx.Row) (*domain.UserPreferences, error) {
	var (
		prefs    domain.UserPreferences
		theme    string
		language string
	)
	if err := row.Scan(
		&prefs.ID,
		&prefs.UserID,
		&theme,
		&language,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	); err != nil {
		return nil, err
	}
	prefs.Theme = domain.Theme(theme)
	prefs.Language = domain.Language(language)
	return &prefs, nil
}
