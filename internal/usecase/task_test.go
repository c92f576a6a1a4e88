package usecase

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	redisrepo "github.com/wojiaofengzhongzhuifeng/count-number/internal/repository/redis"
)

func newTaskFixture(t *testing.T) (*TaskService, *memTaskRepo, *recordingPublisher, *miniredis.Miniredis) {
	t.Helper()

	client, server := newTestRedis(t)
	repo := newMemTaskRepo()
	events := &recordingPublisher{}
	svc := NewTaskService(repo, redisrepo.NewCacheRepository(client, "cache"), events, zaptest.NewLogger(t))
	return svc, repo, events, server
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestTaskService_CreateDefaultsAndValidation(t *testing.T) {
	svc, _, events, _ := newTaskFixture(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "user-1", CreateTaskInput{Title: "  buy milk ", Description: strPtr("  ")})
	require.NoError(t, err)
	require.Equal(t, "buy milk", task.Title)
	require.Equal(t, domain.TaskPriorityMedium, task.Priority)
	require.False(t, task.Completed)
	require.Nil(t, task.Description)

	_, err = svc.CreateTask(ctx, "user-1", CreateTaskInput{Title: " "})
	require.ErrorIs(t, err, ErrTaskTitleRequired)

	_, err = svc.CreateTask(ctx, "user-1", CreateTaskInput{Title: "x", Priority: "urgent"})
	require.ErrorIs(t, err, ErrInvalidTaskPriority)

	require.Len(t, events.tasks, 1)
	require.Equal(t, domain.TaskActionCreated, events.tasks[0].Action)
}

func TestTaskService_ListCacheInvalidation(t *testing.T) {
	svc, repo, _, server := newTaskFixture(t)
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, "user-1", CreateTaskInput{Title: "write report", Priority: "high"})
	require.NoError(t, err)

	tasks, err := svc.GetUserTasks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	_, err = svc.GetUserTasks(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)
	require.True(t, server.Exists("cache:user_tasks:user-1"))

	updated, err := svc.UpdateTask(ctx, "user-1", created.ID, UpdateTaskInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, updated.Completed)
	require.False(t, server.Exists("cache:user_tasks:user-1"))

	tasks, err = svc.GetUserTasks(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, tasks[0].Completed)

	require.NoError(t, svc.DeleteTask(ctx, "user-1", created.ID))
	require.False(t, server.Exists("cache:user_tasks:user-1"))
}

func TestTaskService_UpdateRules(t *testing.T) {
	svc, _, _, _ := newTaskFixture(t)
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, "user-1", CreateTaskInput{Title: "plan trip", Description: strPtr("flights")})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, "user-1", created.ID, UpdateTaskInput{})
	require.ErrorIs(t, err, ErrEmptyTaskUpdate)

	_, err = svc.UpdateTask(ctx, "user-1", created.ID, UpdateTaskInput{Title: strPtr("")})
	require.ErrorIs(t, err, ErrTaskTitleRequired)

	_, err = svc.UpdateTask(ctx, "user-1", created.ID, UpdateTaskInput{Priority: strPtr("someday")})
	require.ErrorIs(t, err, ErrInvalidTaskPriority)

	_, err = svc.UpdateTask(ctx, "user-2", created.ID, UpdateTaskInput{Completed: boolPtr(true)})
	require.ErrorIs(t, err, ErrTaskNotFound)

	updated, err := svc.UpdateTask(ctx, "user-1", created.ID, UpdateTaskInput{Description: strPtr(""), Priority: strPtr("LOW")})
	require.NoError(t, err)
	require.Nil(t, updated.Description)
	require.Equal(t, domain.TaskPriorityLow, updated.Priority)

	require.ErrorIs(t, svc.DeleteTask(ctx, "user-2", created.ID), ErrTaskNotFound)
}

func TestTaskService_Stats(t *testing.T) {
	svc, _, _, _ := newTaskFixture(t)
	ctx := context.Background()

	inputs := []CreateTaskInput{
		{Title: "a", Priority: "high", Completed: true},
		{Title: "b", Priority: "high"},
		{Title: "c", Priority: "low"},
		{Title: "d"},
	}
	for _, input := range inputs {
		_, err := svc.CreateTask(ctx, "user-1", input)
		require.NoError(t, err)
	}

	stats, err := svc.GetTaskStats(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 1, stats.Completed)
	require.Equal(t, 3, stats.Pending)
	require.Equal(t, 2, stats.ByPriority[domain.TaskPriorityHigh])
	require.Equal(t, 1, stats.ByPriority[domain.TaskPriorityMedium])
	require.Equal(t, 1, stats.ByPriority[domain.TaskPriorityLow])
}
