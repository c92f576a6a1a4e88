package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/middleware"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeCounterService struct {
	counters     []domain.Counter
	err          error
	lastName     string
	lastInitial  int64
	lastDelta    *int64
	lastUpdate   *domain.CounterUpdate
	deletedIDs   []string
	incrementHit bool
}

func (f *fakeCounterService) GetUserCounters(_ context.Context, userID string) ([]domain.Counter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counters, nil
}

func (f *fakeCounterService) GetCounter(_ context.Context, ownerID, id string) (*domain.Counter, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, counter := range f.counters {
		if counter.ID == id && counter.UserID == ownerID {
			return &counter, nil
		}
	}
	return nil, usecase.ErrCounterNotFound
}

func (f *fakeCounterService) CreateCounter(_ context.Context, ownerID, name string, initialValue int64) (*domain.Counter, error) {
	f.lastName, f.lastInitial = name, initialValue
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Counter{ID: "c-1", UserID: ownerID, Name: name, Value: initialValue, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

func (f *fakeCounterService) UpdateCounter(_ context.Context, ownerID, id string, update domain.CounterUpdate) (*domain.Counter, error) {
	f.lastUpdate = &update
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Counter{ID: id, UserID: ownerID, Name: "clicks", Value: *update.Value, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

func (f *fakeCounterService) DeleteCounter(_ context.Context, _ string, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeCounterService) IncrementCounter(_ context.Context, ownerID, id string, delta int64) (*domain.Counter, error) {
	f.incrementHit = true
	f.lastDelta = &delta
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Counter{ID: id, UserID: ownerID, Name: "clicks", Value: 10 + delta, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

type fakeTaskService struct {
	tasks       []domain.Task
	err         error
	lastCreate  usecase.CreateTaskInput
	lastUpdate  usecase.UpdateTaskInput
	lastOwnerID string
}

func (f *fakeTaskService) GetUserTasks(_ context.Context, userID string) ([]domain.Task, error) {
	f.lastOwnerID = userID
	return f.tasks, f.err
}

func (f *fakeTaskService) GetTaskStats(ctx context.Context, userID string) (domain.TaskStats, error) {
	tasks, err := f.GetUserTasks(ctx, userID)
	if err != nil {
		return domain.TaskStats{}, err
	}
	return domain.ComputeTaskStats(tasks), nil
}

func (f *fakeTaskService) CreateTask(_ context.Context, ownerID string, input usecase.CreateTaskInput) (*domain.Task, error) {
	f.lastCreate = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Task{ID: "t-1", UserID: ownerID, Title: input.Title, Priority: domain.TaskPriorityMedium, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

func (f *fakeTaskService) UpdateTask(_ context.Context, ownerID, id string, input usecase.UpdateTaskInput) (*domain.Task, error) {
	f.lastUpdate = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Task{ID: id, UserID: ownerID, Title: "updated", Priority: domain.TaskPriorityHigh, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

func (f *fakeTaskService) DeleteTask(_ context.Context, _ string, _ string) error {
	return f.err
}

type fakePreferencesService struct {
	prefs *domain.UserPreferences
	err   error
	last  usecase.PreferencesInput
}

func (f *fakePreferencesService) GetUserPreferences(_ context.Context, _ string) (*domain.UserPreferences, error) {
	return f.prefs, f.err
}

func (f *fakePreferencesService) UpsertUserPreferences(_ context.Context, userID string, input usecase.PreferencesInput) (*domain.UserPreferences, error) {
	f.last = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UserPreferences{ID: "p-1", UserID: userID, Theme: domain.ThemeDark, Language: domain.LanguageEnglish, CreatedAt: fixedTime, UpdatedAt: fixedTime}, nil
}

func (f *fakePreferencesService) UpdateUserPreferences(ctx context.Context, userID string, input usecase.PreferencesInput) (*domain.UserPreferences, error) {
	return f.UpsertUserPreferences(ctx, userID, input)
}

// newAuthedEngine returns an engine whose requests are authenticated as user-1.
func newAuthedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.TraceIDKey, "trace-test")
		middleware.SetIdentity(c, domain.Identity{UserID: "user-1"})
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}
