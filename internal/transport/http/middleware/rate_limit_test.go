package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/telemetry"
)

type fakeRateLimitChecker struct {
	decision    domain.RateLimitDecision
	err         error
	identifiers []string
}

func (f *fakeRateLimitChecker) CheckLimit(_ context.Context, identifier string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	f.identifiers = append(f.identifiers, identifier)
	if f.err != nil {
		return domain.RateLimitDecision{}, f.err
	}
	decision := f.decision
	decision.Limit = limit
	return decision, nil
}

func newRateLimitedRouter(t *testing.T, checker RateLimitChecker, policy domain.FailurePolicy, now time.Time) (*gin.Engine, *telemetry.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics, err := telemetry.NewMetrics(prometheus.NewRegistry(), "test")
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	limiter := NewRateLimiter(checker, policy, zaptest.NewLogger(t)).
		WithMetrics(metrics).
		WithClock(func() time.Time { return now })

	router := gin.New()
	router.Use(EnrichContext())
	router.Use(limiter.RateLimit(RateLimitRule{Limit: 100, Window: time.Minute}))
	router.GET("/counters", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, metrics
}

func TestRateLimiterAllowsAndSetsHeaders(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	checker := &fakeRateLimitChecker{decision: domain.RateLimitDecision{
		Allowed:   true,
		Count:     3,
		Remaining: 97,
		ResetTime: now.Add(time.Minute),
	}}
	router, metrics := newRateLimitedRouter(t, checker, domain.NewFailurePolicy(domain.FailurePolicyModeOpen), now)

	req := httptest.NewRequest(http.MethodGet, "/counters", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "100" {
		t.Fatalf("unexpected limit header %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "97" {
		t.Fatalf("unexpected remaining header %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(now.Add(time.Minute).Unix(), 10) {
		t.Fatalf("unexpected reset header %q", got)
	}
	if rr.Header().Get("Retry-After") != "" {
		t.Fatalf("retry-after must only be set on rejection")
	}
	if len(checker.identifiers) != 1 || checker.identifiers[0] != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop as identifier, got %v", checker.identifiers)
	}
	if got := testutil.ToFloat64(metrics.RateLimitDecisions().WithLabelValues("allowed")); got != 1 {
		t.Fatalf("expected allowed decision recorded, got %v", got)
	}
}

func TestRateLimiterRejectsWith429(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	reset := now.Add(45 * time.Second)
	checker := &fakeRateLimitChecker{decision: domain.RateLimitDecision{
		Allowed:   false,
		Count:     101,
		Remaining: 0,
		ResetTime: reset,
	}}
	router, metrics := newRateLimitedRouter(t, checker, domain.NewFailurePolicy(domain.FailurePolicyModeOpen), now)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/counters", nil))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "45" {
		t.Fatalf("expected Retry-After 45, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Too many requests" {
		t.Fatalf("unexpected error message %v", body["error"])
	}
	if resetTime, ok := body["resetTime"].(float64); !ok || int64(resetTime) != reset.Unix() {
		t.Fatalf("unexpected resetTime %v", body["resetTime"])
	}
	if got := testutil.ToFloat64(metrics.RateLimitDecisions().WithLabelValues("denied")); got != 1 {
		t.Fatalf("expected denied decision recorded, got %v", got)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	checker := &fakeRateLimitChecker{err: errors.New("redis: connection refused")}
	router, metrics := newRateLimitedRouter(t, checker, domain.NewFailurePolicy(domain.FailurePolicyModeOpen), time.Now())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/counters", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass under fail-open, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatalf("expected no rate limit headers when the store failed")
	}
	if got := testutil.ToFloat64(metrics.RateLimitDecisions().WithLabelValues("error")); got != 1 {
		t.Fatalf("expected error decision recorded, got %v", got)
	}
}

func TestRateLimiterFailsClosed(t *testing.T) {
	checker := &fakeRateLimitChecker{err: errors.New("redis: connection refused")}
	router, _ := newRateLimitedRouter(t, checker, domain.NewFailurePolicy(domain.FailurePolicyModeClosed), time.Now())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/counters", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 under fail-closed, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == "" || body.TraceID == "" {
		t.Fatalf("expected error and trace id, got %+v", body)
	}
}

func TestForwardedForIdentifier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identify := ForwardedForIdentifier()

	cases := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{name: "first hop", forwarded: " 198.51.100.4 , 10.0.0.2", remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "client ip", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "unknown", remote: "", want: "unknown"},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			c.Request.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := identify(c); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
