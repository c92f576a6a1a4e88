package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/middleware"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"
)

// CounterService is the counter behaviour the HTTP layer depends on.
type CounterService interface {
	GetUserCounters(ctx context.Context, userID string) ([]domain.Counter, error)
	GetCounter(ctx context.Context, ownerID, id string) (*domain.Counter, error)
	CreateCounter(ctx context.Context, ownerID, name string, initialValue int64) (*domain.Counter, error)
	UpdateCounter(ctx context.Context, ownerID, id string, update domain.CounterUpdate) (*domain.Counter, error)
	DeleteCounter(ctx context.Context, ownerID, id string) error
	IncrementCounter(ctx context.Context, ownerID, id string, delta int64) (*domain.Counter, error)
}

var counterErrorCases = []ErrorCase{
	{Err: usecase.ErrCounterNotFound, Status: http.StatusNotFound, Message: "counter not found"},
	{Err: usecase.ErrCounterNameRequired, Status: http.StatusBadRequest, Message: "counter name is required"},
	{Err: usecase.ErrUserIDRequired, Status: http.StatusUnauthorized, Message: "authentication required"},
}

type CounterHandler struct {
	counters CounterService
}

func NewCounterHandler(counters CounterService) *CounterHandler {
	return &CounterHandler{counters: counters}
}

func (h *CounterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.ListCounters)
	r.POST("", h.CreateCounter)
	r.GET("/:id", h.GetCounter)
	r.PUT("/:id", h.UpdateCounter)
	r.DELETE("/:id", h.DeleteCounter)
}

// ListCounters godoc
// @Summary List counters
// @Description Returns the caller's counters, newest first.
// @Tags Counters
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} CounterResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /counters [get]
func (h *CounterHandler) ListCounters(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	counters, err := h.counters.GetUserCounters(c.Request.Context(), userID)
	if err != nil {
		respondInternal(c, err, counterErrorCases...)
		return
	}

	resp := make([]CounterResponse, 0, len(counters))
	for _, counter := range counters {
		resp = append(resp, newCounterResponse(counter))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCounter godoc
// @Summary Create a counter
// @Description Creates a counter with an optional starting value.
// @Tags Counters
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body CreateCounterRequest true "Counter create request"
// @Success 201 {object} CounterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /counters [post]
func (h *CounterHandler) CreateCounter(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid counter payload"))
		return
	}

	var initial int64
	if req.Value != nil {
		initial = *req.Value
	}

	counter, err := h.counters.CreateCounter(c.Request.Context(), userID, req.Name, initial)
	if err != nil {
		respondInternal(c, err, counterErrorCases...)
		return
	}

	c.JSON(http.StatusCreated, newCounterResponse(*counter))
}

// GetCounter godoc
// @Summary Get a counter
// @Description Returns one counter with its latest cached value.
// @Tags Counters
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Counter ID"
// @Success 200 {object} CounterResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /counters/{id} [get]
func (h *CounterHandler) GetCounter(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	counter, err := h.counters.GetCounter(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondInternal(c, err, counterErrorCases...)
		return
	}

	c.JSON(http.StatusOK, newCounterResponse(*counter))
}

// UpdateCounter godoc
// @Summary Update a counter
// @Description Sets or increments a counter. When both fields are present the increment is applied.
// @Tags Counters
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Counter ID"
// @Param request body UpdateCounterRequest true "Counter update request"
// @Success 200 {object} CounterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /counters/{id} [put]
func (h *CounterHandler) UpdateCounter(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid counter payload"))
		return
	}

	var (
		counter *domain.Counter
		err     error
	)
	switch {
	case req.Increment != nil:
		counter, err = h.counters.IncrementCounter(c.Request.Context(), userID, c.Param("id"), *req.Increment)
	case req.Value != nil:
		counter, err = h.counters.UpdateCounter(c.Request.Context(), userID, c.Param("id"), domain.CounterUpdate{Value: req.Value})
	default:
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "value or increment is required"))
		return
	}
	if err != nil {
		respondInternal(c, err, counterErrorCases...)
		return
	}

	c.JSON(http.StatusOK, newCounterResponse(*counter))
}

// DeleteCounter godoc
// @Summary Delete a counter
// @Description Removes a counter owned by the caller together with its cache entries.
// @Tags Counters
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Counter ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /counters/{id} [delete]
func (h *CounterHandler) DeleteCounter(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.counters.DeleteCounter(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondInternal(c, err, counterErrorCases...)
		return
	}

	c.Status(http.StatusNoContent)
}

// requireUser reads the authenticated user id, answering 401 when RequireAuth did not run.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return "", false
	}
	return userID, true
}
