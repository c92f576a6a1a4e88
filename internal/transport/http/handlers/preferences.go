package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"
)

// PreferencesService is the preferences behaviour the HTTP layer depends on.
type PreferencesService interface {
	GetUserPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error)
	UpsertUserPreferences(ctx context.Context, userID string, input usecase.PreferencesInput) (*domain.UserPreferences, error)
	UpdateUserPreferences(ctx context.Context, userID string, input usecase.PreferencesInput) (*domain.UserPreferences, error)
}

var preferencesErrorCases = []ErrorCase{
	{Err: usecase.ErrPreferencesNotFound, Status: http.StatusNotFound, Message: "preferences not found"},
	{Err: usecase.ErrInvalidTheme, Status: http.StatusBadRequest, Message: "theme must be one of light, dark, system"},
	{Err: usecase.ErrInvalidLanguage, Status: http.StatusBadRequest, Message: "language must be one of zh-CN, en"},
	{Err: usecase.ErrEmptyPreferencesUpdate, Status: http.StatusBadRequest, Message: "no preference fields to update"},
	{Err: usecase.ErrUserIDRequired, Status: http.StatusUnauthorized, Message: "authentication required"},
}

type PreferencesHandler struct {
	preferences PreferencesService
}

func NewPreferencesHandler(preferences PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

func (h *PreferencesHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.GetPreferences)
	r.PUT("", h.UpsertPreferences)
	r.PATCH("", h.UpdatePreferences)
}

// GetPreferences godoc
// @Summary Get preferences
// @Description Returns the stored preferences, or null for a user who never saved any.
// @Tags Preferences
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} PreferencesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /preferences [get]
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	prefs, err := h.preferences.GetUserPreferences(c.Request.Context(), userID)
	if err != nil {
		respondInternal(c, err, preferencesErrorCases...)
		return
	}
	if prefs == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, newPreferencesResponse(*prefs))
}

// UpsertPreferences godoc
// @Summary Save preferences
// @Description Creates or updates the caller's preferences. Omitted fields keep their stored value.
// @Tags Preferences
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body PreferencesRequest true "Preferences request"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /preferences [put]
func (h *PreferencesHandler) UpsertPreferences(c *gin.Context) {
	h.write(c, h.preferences.UpsertUserPreferences)
}

// UpdatePreferences godoc
// @Summary Update preferences
// @Description Changes existing preferences. Answers 404 when none were saved yet.
// @Tags Preferences
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body PreferencesRequest true "Preferences request"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} middleware.RateLimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /preferences [patch]
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	h.write(c, h.preferences.UpdateUserPreferences)
}

func (h *PreferencesHandler) write(c *gin.Context, apply func(context.Context, string, usecase.PreferencesInput) (*domain.UserPreferences, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid preferences payload"))
		return
	}

	prefs, err := apply(c.Request.Context(), userID, usecase.PreferencesInput{
		Theme:    req.Theme,
		Language: req.Language,
	})
	if err != nil {
		respondInternal(c, err, preferencesErrorCases...)
		return
	}

	c.JSON(http.StatusOK, newPreferencesResponse(*prefs))
}
