package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsCacheAndRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg, "test")
	if err != nil {
		t.Fatalf("NewMetrics returned error: %v", err)
	}

	metrics.IncCacheHit("user_counters")
	metrics.IncCacheHit("user_counters")
	metrics.IncCacheMiss("user_counters")
	metrics.IncRateLimitAllowed()
	metrics.IncRateLimitDenied()
	metrics.IncRateLimitError()

	if got := testutil.ToFloat64(metrics.CacheLookups().WithLabelValues("user_counters", "hit")); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.CacheLookups().WithLabelValues("user_counters", "miss")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
	for _, outcome := range []string{"allowed", "denied", "error"} {
		if got := testutil.ToFloat64(metrics.RateLimitDecisions().WithLabelValues(outcome)); got != 1 {
			t.Fatalf("expected 1 %s decision, got %v", outcome, got)
		}
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg, "test")
	if err != nil {
		t.Fatalf("NewMetrics returned error: %v", err)
	}
	second, err := NewMetrics(reg, "test")
	if err != nil {
		t.Fatalf("second NewMetrics returned error: %v", err)
	}

	first.IncRateLimitDenied()
	if got := testutil.ToFloat64(second.RateLimitDecisions().WithLabelValues("denied")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.IncCacheHit("x")
	metrics.IncRateLimitDenied()
}
