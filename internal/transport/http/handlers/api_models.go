package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// CreateCounterRequest is the payload for POST /counters.
type CreateCounterRequest struct {
	Name  string `json:"name"`
	Value *int64 `json:"value"`
}

// UpdateCounterRequest is the payload for PUT /counters/{id}. Increment takes precedence over value.
type UpdateCounterRequest struct {
	Value     *int64 `json:"value"`
	Increment *int64 `json:"increment"`
}

// CounterResponse is the API view of a counter.
type CounterResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	Completed   bool    `json:"completed"`
}

// UpdateTaskRequest is the payload for PUT /tasks/{id}; omitted fields stay unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Completed   *bool   `json:"completed"`
}

// TaskResponse is the API view of a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskStatsResponse summarises a user's tasks.
type TaskStatsResponse struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	ByPriority map[string]int `json:"byPriority"`
}

// PreferencesRequest is the payload for PUT and PATCH /preferences.
type PreferencesRequest struct {
	Theme    *string `json:"theme"`
	Language *string `json:"language"`
}

// PreferencesResponse is the API view of a user's UI settings.
type PreferencesResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Theme     string    `json:"theme"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newCounterResponse(counter domain.Counter) CounterResponse {
	return CounterResponse{
		ID:        counter.ID,
		UserID:    counter.UserID,
		Name:      counter.Name,
		Value:     counter.Value,
		CreatedAt: counter.CreatedAt,
		UpdatedAt: counter.UpdatedAt,
	}
}

func newTaskResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    string(task.Priority),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newTaskStatsResponse(stats domain.TaskStats) TaskStatsResponse {
	byPriority := map[string]int{
		string(domain.TaskPriorityLow):    0,
		string(domain.TaskPriorityMedium): 0,
		string(domain.TaskPriorityHigh):   0,
	}
	for priority, count := range stats.ByPriority {
		byPriority[string(priority)] += count
	}
	return TaskStatsResponse{
		Total:      stats.Total,
		Completed:  stats.Completed,
		Pending:    stats.Pending,
		ByPriority: byPriority,
	}
}

func newPreferencesResponse(prefs domain.UserPreferences) PreferencesResponse {
	return PreferencesResponse{
		ID:        prefs.ID,
		UserID:    prefs.UserID,
		Theme:     string(prefs.Theme),
		Language:  string(prefs.Language),
		CreatedAt: prefs.CreatedAt,
		UpdatedAt: prefs.UpdatedAt,
	}
}
