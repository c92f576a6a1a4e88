package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	appLogger "github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/logger"
)

const unknownIdentifier = "unknown"

// RateLimitChecker evaluates a sliding window for one identifier.
type RateLimitChecker interface {
	CheckLimit(ctx context.Context, identifier string, limit int, window time.Duration) (domain.RateLimitDecision, error)
}

// IdentifierFunc extracts the identifier used to scope rate limits.
type IdentifierFunc func(*gin.Context) string

// RateLimitRule configures the window applied by the middleware.
type RateLimitRule struct {
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimitResponse is the body returned with 429 responses.
type RateLimitResponse struct {
	Error     string `json:"error"`
	ResetTime int64  `json:"resetTime"`
	TraceID   string `json:"trace_id,omitempty"`
}

type nopRateLimitMetrics struct{}

func (nopRateLimitMetrics) IncRateLimitAllowed() {}
func (nopRateLimitMetrics) IncRateLimitDenied()  {}
func (nopRateLimitMetrics) IncRateLimitError()   {}

// RateLimiter turns limiter decisions into headers, 429 responses and failure policy handling.
type RateLimiter struct {
	checker RateLimitChecker
	policy  domain.FailurePolicy
	metrics port.RateLimitMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(checker RateLimitChecker, policy domain.FailurePolicy, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		checker: checker,
		policy:  policy,
		metrics: nopRateLimitMetrics{},
		logger:  logger,
		now:     time.Now,
	}
}

// WithMetrics records every decision.
func (rl *RateLimiter) WithMetrics(metrics port.RateLimitMetrics) *RateLimiter {
	if metrics != nil {
		rl.metrics = metrics
	}
	return rl
}

// WithClock allows injection of a custom clock for Retry-After computation.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ForwardedForIdentifier uses the first X-Forwarded-For hop, then the gin client IP, then "unknown".
func ForwardedForIdentifier() IdentifierFunc {
	return func(c *gin.Context) string {
		if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if first != "" {
				return first
			}
		}
		if ip := c.ClientIP(); ip != "" {
			return ip
		}
		return unknownIdentifier
	}
}

// RateLimit returns a gin middleware enforcing rule.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Identifier == nil {
		rule.Identifier = ForwardedForIdentifier()
	}

	return func(c *gin.Context) {
		if rl.checker == nil {
			c.Next()
			return
		}

		identifier := rule.Identifier(c)
		if identifier == "" {
			identifier = unknownIdentifier
		}

		decision, err := rl.checker.CheckLimit(c.Request.Context(), identifier, rule.Limit, rule.Window)
		if err != nil {
			rl.metrics.IncRateLimitError()
			rl.logger.Error("rate limit check failed",
				zap.String("identifier", appLogger.MaskIP(identifier)),
				zap.String("policy", string(rl.policy.Mode())),
				zap.Error(err),
			)
			if rl.policy.FailsOpen() {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "rate limiter unavailable",
				TraceID: GetTraceID(c),
			})
			return
		}

		applyRateLimitHeaders(c, decision)

		if !decision.Allowed {
			rl.metrics.IncRateLimitDenied()
			retryAfter := int(math.Ceil(decision.RetryAfter(rl.now()).Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitResponse{
				Error:     "Too many requests",
				ResetTime: decision.ResetTime.Unix(),
				TraceID:   GetTraceID(c),
			})
			return
		}

		rl.metrics.IncRateLimitAllowed()
		c.Next()
	}
}

func applyRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))
}
