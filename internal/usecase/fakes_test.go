package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, server
}

type memCounterRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.Counter
	listCalls int
	listErr   error
}

func newMemCounterRepo() *memCounterRepo {
	return &memCounterRepo{rows: make(map[string]domain.Counter)}
}

func (m *memCounterRepo) ListByUser(_ context.Context, userID string) ([]domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}

	counters := make([]domain.Counter, 0)
	for _, counter := range m.rows {
		if counter.UserID == userID {
			counters = append(counters, counter)
		}
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].CreatedAt.After(counters[j].CreatedAt) })
	return counters, nil
}

func (m *memCounterRepo) GetByID(_ context.Context, userID, id string) (*domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.rows[id]
	if !ok || counter.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &counter, nil
}

func (m *memCounterRepo) Create(_ context.Context, counter domain.Counter) (*domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[counter.ID] = counter
	return &counter, nil
}

func (m *memCounterRepo) Update(_ context.Context, userID, id string, update domain.CounterUpdate) (*domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.rows[id]
	if !ok || counter.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if update.Value != nil {
		counter.Value = *update.Value
	}
	counter.UpdatedAt = time.Now().UTC()
	m.rows[id] = counter
	return &counter, nil
}

func (m *memCounterRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.rows[id]
	if !ok || counter.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memTaskRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.Task
	listCalls int
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{rows: make(map[string]domain.Task)}
}

func (m *memTaskRepo) ListByUser(_ context.Context, userID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++

	tasks := make([]domain.Task, 0)
	for _, task := range m.rows {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (m *memTaskRepo) Create(_ context.Context, task domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[task.ID] = task
	return &task, nil
}

func (m *memTaskRepo) Update(_ context.Context, userID, id string, update domain.TaskUpdate) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.rows[id]
	if !ok || task.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		if *update.Description == "" {
			task.Description = nil
		} else {
			description := *update.Description
			task.Description = &description
		}
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}
	m.rows[id] = task
	return &task, nil
}

func (m *memTaskRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.rows[id]
	if !ok || task.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memPreferencesRepo struct {
	mu       sync.Mutex
	rows     map[string]domain.UserPreferences
	getCalls int
}

func newMemPreferencesRepo() *memPreferencesRepo {
	return &memPreferencesRepo{rows: make(map[string]domain.UserPreferences)}
}

func (m *memPreferencesRepo) GetByUser(_ context.Context, userID string) (*domain.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	prefs, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &prefs, nil
}

func (m *memPreferencesRepo) Upsert(_ context.Context, prefs domain.UserPreferences) (*domain.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rows[prefs.UserID]; ok {
		prefs.ID = existing.ID
		prefs.CreatedAt = existing.CreatedAt
	}
	m.rows[prefs.UserID] = prefs
	return &prefs, nil
}

func (m *memPreferencesRepo) Update(_ context.Context, userID string, update domain.PreferencesUpdate) (*domain.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Theme != nil {
		prefs.Theme = *update.Theme
	}
	if update.Language != nil {
		prefs.Language = *update.Language
	}
	m.rows[userID] = prefs
	return &prefs, nil
}

// brokenCache fails the selected operations and otherwise behaves as an empty cache.
type brokenCache struct {
	getErr    error
	setErr    error
	deleteErr error
}

func (c *brokenCache) Get(context.Context, string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	return "", repository.ErrNotFound
}

func (c *brokenCache) Set(context.Context, string, string, time.Duration) error {
	return c.setErr
}

func (c *brokenCache) Delete(context.Context, string) error {
	return c.deleteErr
}

type recordingPublisher struct {
	mu       sync.Mutex
	counters []domain.CounterChangedEvent
	tasks    []domain.TaskChangedEvent
	err      error
}

func (p *recordingPublisher) PublishCounterChanged(_ context.Context, event domain.CounterChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters = append(p.counters, event)
	return p.err
}

func (p *recordingPublisher) PublishTaskChanged(_ context.Context, event domain.TaskChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, event)
	return p.err
}

type failingRateLimitStore struct{}

func (failingRateLimitStore) Hit(context.Context, string, time.Duration, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}
