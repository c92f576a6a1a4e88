package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/security"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// TokenVerifier validates access tokens issued by the identity provider.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// RequireAuth accepts a bearer token or, failing that, the session cookie set by the identity
// provider's client library.
func RequireAuth(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := extractToken(c, cookieName)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, problem))
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrExpiredAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "access token expired"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "invalid access token"))
			}
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// extractToken returns the raw token, or a client-facing problem when no usable credential is present.
func extractToken(c *gin.Context, cookieName string) (token string, problem string) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "invalid authorization format: expected 'Bearer <token>'"
		}
		token = strings.TrimSpace(parts[1])
		if token == "" {
			return "", "missing access token"
		}
		return token, ""
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(cookie) != "" {
			return strings.TrimSpace(cookie), ""
		}
	}

	return "", "authentication required"
}
