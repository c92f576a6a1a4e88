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

const tasksTable = "tasks"

var taskColumns = []string{"id", "user_id", "title", "description", "completed", "priority", "created_at", "updated_at"}

// TaskRepository persists tasks in PostgreSQL.
type TaskRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewTaskRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewTaskRepository(exec pgExecutor) *TaskRepository {
	return &TaskRepository{
		exec:    exec,
		builder: newBuilder(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ port.TaskRepository = (*TaskRepository)(nil)

// ListByUser returns the user's tasks, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	stmt, args, err := r.builder.
		Select(taskColumns...).
		From(tasksTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tasks sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create inserts the task and returns the stored row.
func (r *TaskRepository) Create(ctx context.Context, task domain.Task) (*domain.Task, error) {
	if strings.TrimSpace(task.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	stmt, args, err := r.builder.
		Insert(tasksTable).
		Columns(taskColumns...).
		Values(task.ID, task.UserID, task.Title, task.Description, task.Completed, string(task.Priority), task.CreatedAt, task.UpdatedAt).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert task sql: %w", err)
	}

	created, err := scanTask(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// Update applies the provided fields and refreshes updated_at. An empty description clears it.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, update domain.TaskUpdate) (*domain.Task, error) {
	query := r.builder.Update(tasksTable)
	if update.Title != nil {
		query = query.Set("title", *update.Title)
	}
	if update.Description != nil {
		if *update.Description == "" {
			query = query.Set("description", nil)
		} else {
			query = query.Set("description", *update.Description)
		}
	}
	if update.Priority != nil {
		query = query.Set("priority", string(*update.Priority))
	}
	if update.Completed != nil {
		query = query.Set("completed", *update.Completed)
	}

	stmt, args, err := query.
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update task sql: %w", err)
	}

	updated, err := scanTask(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isMissingRow(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

// Delete removes the task owned by userID.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	stmt, args, err := r.builder.
		Delete(tasksTable).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete task sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isMissingRow(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
	)
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Priority = domain.TaskPriority(priority)
	return &task, nil
}
