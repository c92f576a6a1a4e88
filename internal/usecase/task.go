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
	// ErrTaskNotFound indicates the task does not exist or belongs to another user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskTitleRequired indicates a missing or blank title.
	ErrTaskTitleRequired = errors.New("task title is required")
	// ErrInvalidTaskPriority indicates a priority outside low, medium and high.
	ErrInvalidTaskPriority = errors.New("invalid task priority")
	// ErrEmptyTaskUpdate indicates an update request that changes nothing.
	ErrEmptyTaskUpdate = errors.New("no task fields to update")
)

// CreateTaskInput captures the payload for creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    string
	Completed   bool
}

// UpdateTaskInput captures optional task changes; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Completed   *bool
}

// TaskService manages to-do items and their per-user list snapshot.
type TaskService struct {
	tasks     port.TaskRepository
	snapshots snapshotCache
	events    port.EventPublisher
	logger    *zap.Logger
	listTTL   time.Duration
	now       func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(tasks port.TaskRepository, cache port.Cache, events port.EventPublisher, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:     tasks,
		snapshots: newSnapshotCache(cache, nil, logger),
		events:    events,
		logger:    logger,
		listTTL:   defaultListTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithListTTL overrides the list snapshot expiry.
func (s *TaskService) WithListTTL(ttl time.Duration) *TaskService {
	if ttl > 0 {
		s.listTTL = ttl
	}
	return s
}

// WithMetrics records cache hits and misses on the list snapshot.
func (s *TaskService) WithMetrics(metrics port.CacheMetrics) *TaskService {
	if metrics != nil {
		s.snapshots.metrics = metrics
	}
	return s
}

// WithClock overrides the internal clock for deterministic tests.
func (s *TaskService) WithClock(clock func() time.Time) *TaskService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// GetUserTasks returns the user's tasks, newest first.
func (s *TaskService) GetUserTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	var cached []domain.Task
	if s.snapshots.load(ctx, taskListCacheName, userID, &cached) {
		return cached, nil
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	s.snapshots.store(ctx, taskListCacheName, userID, tasks, s.listTTL)
	return tasks, nil
}

// GetTaskStats aggregates the user's tasks by completion and priority.
func (s *TaskService) GetTaskStats(ctx context.Context, userID string) (domain.TaskStats, error) {
	tasks, err := s.GetUserTasks(ctx, userID)
	if err != nil {
		return domain.TaskStats{}, err
	}
	return domain.ComputeTaskStats(tasks), nil
}

// CreateTask inserts a task owned by ownerID. Priority defaults to medium.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}

	priority := domain.TaskPriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTaskPriority(input.Priority)
		if !ok {
			return nil, ErrInvalidTaskPriority
		}
		priority = parsed
	}

	now := s.now()
	created, err := s.tasks.Create(ctx, domain.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       title,
		Description: normalizeDescription(input.Description),
		Completed:   input.Completed,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.snapshots.invalidate(ctx, taskListCacheName, ownerID); err != nil {
		return nil, fmt.Errorf("invalidate task list cache: %w", err)
	}

	s.publish(ctx, domain.TaskActionCreated, created)
	return created, nil
}

// UpdateTask applies input to a task owned by ownerID. A blank description clears it.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id string, input UpdateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrUserIDRequired
	}

	var update domain.TaskUpdate
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTaskTitleRequired
		}
		update.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		update.Description = &description
	}
	if input.Priority != nil {
		priority, ok := domain.ParseTaskPriority(*input.Priority)
		if !ok {
			return nil, ErrInvalidTaskPriority
		}
		update.Priority = &priority
	}
	update.Completed = input.Completed

	if update.Empty() {
		return nil, ErrEmptyTaskUpdate
	}

	updated, err := s.tasks.Update(ctx, ownerID, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := s.snapshots.invalidate(ctx, taskListCacheName, ownerID); err != nil {
		return nil, fmt.Errorf("invalidate task list cache: %w", err)
	}

	s.publish(ctx, domain.TaskActionUpdated, updated)
	return updated, nil
}

// DeleteTask removes a task owned by ownerID.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrUserIDRequired
	}

	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}

	if err := s.snapshots.invalidate(ctx, taskListCacheName, ownerID); err != nil {
		return fmt.Errorf("invalidate task list cache: %w", err)
	}

	s.publish(ctx, domain.TaskActionDeleted, &domain.Task{ID: id, UserID: ownerID})
	return nil
}

func (s *TaskService) publish(ctx context.Context, action domain.TaskAction, task *domain.Task) {
	if s.events == nil || task == nil {
		return
	}

	event := domain.TaskChangedEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Title:      task.Title,
		Completed:  task.Completed,
		Priority:   task.Priority,
		OccurredAt: s.now(),
	}
	if err := s.events.PublishTaskChanged(ctx, event); err != nil {
		s.logger.Warn("publish task event failed",
			zap.String("task_id", task.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func normalizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
