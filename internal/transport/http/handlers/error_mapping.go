package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal server error"

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Unmapped errors are attached to the gin context so the access log records them; the client only sees
// the fallback message.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// respondInternal maps err against cases with the generic 500 fallback.
func respondInternal(c *gin.Context, err error, cases ...ErrorCase) {
	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, internalErrorMessage)
}
