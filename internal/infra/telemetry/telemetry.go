package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
)

const defaultNamespace = "count_number"

// Metrics holds the domain collectors shared by the cache layer and the rate limiter.
type Metrics struct {
	cacheLookups       *prometheus.CounterVec
	rateLimitDecisions *prometheus.CounterVec
}

var (
	_ port.CacheMetrics     = (*Metrics)(nil)
	_ port.RateLimitMetrics = (*Metrics)(nil)
)

// NewMetrics registers the domain collectors with reg, reusing collectors that are already registered.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups partitioned by cache and result.",
	}, []string{"cache", "result"}))
	if err != nil {
		return nil, fmt.Errorf("register cache lookups collector: %w", err)
	}

	decisions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_limit",
		Name:      "decisions_total",
		Help:      "Sliding window rate limiter decisions partitioned by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, fmt.Errorf("register rate limit collector: %w", err)
	}

	return &Metrics{cacheLookups: lookups, rateLimitDecisions: decisions}, nil
}

func registerCounterVec(reg prometheus.Registerer, collector *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(collector); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return collector, nil
}

// CacheLookups exposes the cache lookup collector.
func (m *Metrics) CacheLookups() *prometheus.CounterVec {
	return m.cacheLookups
}

// RateLimitDecisions exposes the rate limiter collector.
func (m *Metrics) RateLimitDecisions() *prometheus.CounterVec {
	return m.rateLimitDecisions
}

func (m *Metrics) IncCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

func (m *Metrics) IncCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

func (m *Metrics) IncCacheError(cache string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, "error").Inc()
}

func (m *Metrics) IncRateLimitAllowed() {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues("allowed").Inc()
}

func (m *Metrics) IncRateLimitDenied() {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues("denied").Inc()
}

func (m *Metrics) IncRateLimitError() {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues("error").Inc()
}
