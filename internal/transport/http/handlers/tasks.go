package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"
)

// TaskService is the task behaviour the HTTP layer depends on.
type TaskService interface {
	GetUserTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTaskStats(ctx context.Context, userID string) (domain.TaskStats, error)
	CreateTask(ctx context.Context, ownerID string, input usecase.CreateTaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, input usecase.UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
}

var taskErrorCases = []ErrorCase{
	{Err: usecase.ErrTaskNotFound, Status: http.StatusNotFound, Message: "task not found"},
	{Err: usecase.ErrTaskTitleRequired, Status: http.StatusBadRequest, Message: "task title is required"},
	{Err: usecase.ErrInvalidTaskPriority, Status: http.StatusBadRequest, Message: "priority must be one of low, medium, high"},
	{Err: usecase.ErrEmptyTaskUpdate, Status: http.StatusBadRequest, Message: "no task fields to update"},
	{Err: usecase.ErrUserIDRequired, Status: http.StatusUnauthorized, Message: "authentication required"},
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.ListTasks)
	r.GET("/stats", h.Stats)
	r.POST("", h.CreateTask)
	r.PUT("/:id", h.UpdateTask)
	r.DELETE("/:id", h.DeleteTask)
}

// ListTasks godoc
// @Summary List tasks
// @Description Returns the caller's tasks, newest first.
// @Tags Tasks
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} TaskResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.GetUserTasks(c.Request.Context(), userID)
	if err != nil {
		respondInternal(c, err, taskErrorCases...)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newTaskResponse(task))
	}
	c.JSON(http.StatusOK, resp)
}

// Stats godoc
// @Summary Task statistics
// @Description Reports totals, completion and per-priority counts for the caller's tasks.
// @Tags Tasks
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} TaskStatsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.tasks.GetTaskStats(c.Request.Context(), userID)
	if err != nil {
		respondInternal(c, err, taskErrorCases...)
		return
	}

	c.JSON(http.StatusOK, newTaskStatsResponse(stats))
}

// CreateTask godoc
// @Summary Create a task
// @Description Creates a task. Priority defaults to medium.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body CreateTaskRequest true "Task create request"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid task payload"))
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, usecase.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		respondInternal(c, err, taskErrorCases...)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(*task))
}

// UpdateTask godoc
// @Summary Update a task
// @Description Changes the supplied fields of a task. An empty description clears it.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Task update request"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid task payload"))
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, c.Param("id"), usecase.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		respondInternal(c, err, taskErrorCases...)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(*task))
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Removes a task owned by the caller.
// @Tags Tasks
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Task ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondInternal(c, err, taskErrorCases...)
		return
	}

	c.Status(http.StatusNoContent)
}
