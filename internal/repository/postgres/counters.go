package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const countersTable = "counters"

var counterColumns = []string{"id", "user_id", "name", "value", "created_at", "updated_at"}

// CounterRepository persists counters in PostgreSQL.
type CounterRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewCounterRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewCounterRepository(exec pgExecutor) *CounterRepository {
	return &CounterRepository{
		exec:    exec,
		builder: newBuilder(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ port.CounterRepository = (*CounterRepository)(nil)

// ListByUser returns the user's counters, newest first.
func (r *CounterRepository) ListByUser(ctx context.Context, userID string) ([]domain.Counter, error) {
	stmt, args, err := r.builder.
		Select(counterColumns...).
		From(countersTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list counters sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	counters := make([]domain.Counter, 0)
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counters = append(counters, *counter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counters: %w", err)
	}

	return counters, nil
}

// GetByID loads a counter owned by userID.
func (r *CounterRepository) GetByID(ctx context.Context, userID, id string) (*domain.Counter, error) {
	stmt, args, err := r.builder.
		Select(counterColumns...).
		From(countersTable).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select counter sql: %w", err)
	}

	counter, err := scanCounter(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isMissingRow(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select counter: %w", err)
	}
	return counter, nil
}

// Create inserts the counter and returns the stored row.
func (r *CounterRepository) Create(ctx context.Context, counter domain.Counter) (*domain.Counter, error) {
	if strings.TrimSpace(counter.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	stmt, args, err := r.builder.
		Insert(countersTable).
		Columns(counterColumns...).
		Values(counter.ID, counter.UserID, counter.Name, counter.Value, counter.CreatedAt, counter.UpdatedAt).
		Suffix("RETURNING " + strings.Join(counterColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert counter sql: %w", err)
	}

	created, err := scanCounter(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("insert counter: %w", err)
	}
	return created, nil
}

// Update applies the provided fields and refreshes updated_at.
func (r *CounterRepository) Update(ctx context.Context, userID, id string, update domain.CounterUpdate) (*domain.Counter, error) {
	query := r.builder.Update(countersTable)
	if update.Value != nil {
		query = query.Set("value", *update.Value)
	}

	stmt, args, err := query.
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING " + strings.Join(counterColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update counter sql: %w", err)
	}

	updated, err := scanCounter(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isMissingRow(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update counter: %w", err)
	}
	return updated, nil
}

// Delete removes the counter owned by userID.
func (r *CounterRepository) Delete(ctx context.Context, userID, id string) error {
	stmt, args, err := r.builder.
		Delete(countersTable).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete counter sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isMissingRow(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete counter: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanCounter(row pgx.Row) (*domain.Counter, error) {
	var counter domain.Counter
	if err := row.Scan(
		&counter.ID,
		&counter.UserID,
		&counter.Name,
		&counter.Value,
		&counter.CreatedAt,
		&counter.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &counter, nil
}
