package transportgrpc

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// ServiceName is the health service name reported alongside the overall "" entry.
	ServiceName = "count_number.v1.CountService"

	defaultHealthInterval = 15 * time.Second
	healthCheckTimeout    = 3 * time.Second
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthReporter periodically probes dependencies and flips the gRPC serving status.
type HealthReporter struct {
	server   *health.Server
	checks   map[string]HealthCheck
	interval time.Duration
	logger   *zap.Logger
}

// NewHealthReporter builds a reporter that starts in NOT_SERVING until the first probe succeeds.
func NewHealthReporter(server *health.Server, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthReporter{
		server:   server,
		checks:   make(map[string]HealthCheck),
		interval: interval,
		logger:   logger,
	}
}

// AddCheck registers a named dependency probe.
func (r *HealthReporter) AddCheck(name string, check HealthCheck) *HealthReporter {
	if name != "" && check != nil {
		r.checks[name] = check
	}
	return r
}

// Probe runs every check once and updates the serving status. It reports whether all checks passed.
func (r *HealthReporter) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		if err := r.checks[name](ctx); err != nil {
			healthy = false
			r.logger.Warn("dependency health check failed", zap.String("dependency", name), zap.Error(err))
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return healthy
}

// Run probes immediately and then on every interval until ctx is cancelled. On return every
// service is marked NOT_SERVING.
func (r *HealthReporter) Run(ctx context.Context) {
	r.Probe(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Probe(ctx)
		}
	}
}
