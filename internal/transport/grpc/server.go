package transportgrpc

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/grpc/interceptors"
)

// ServerDependencies encapsulates collaborators of the gRPC server layer.
type ServerDependencies struct {
	Health         *health.Server
	Metrics        *grpcinterceptors.GRPCMetrics
	TracerProvider trace.TracerProvider
	Logger         *zap.Logger
}

// NewServer builds a gRPC server exposing grpc.health.v1 and reflection, instrumented with
// Prometheus, OpenTelemetry and access logging.
func NewServer(deps ServerDependencies) *grpc.Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	unaryInterceptors := []grpc.UnaryServerInterceptor{
		deps.Metrics.UnaryServerInterceptor(),
		grpcinterceptors.LoggingInterceptor(logger),
	}

	server := grpc.NewServer(
		grpc.StatsHandler(grpcinterceptors.NewServerStatsHandler(grpcinterceptors.TracingOptions{
			TracerProvider: deps.TracerProvider,
		})),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
	)

	healthServer := deps.Health
	if healthServer == nil {
		healthServer = health.NewServer()
	}
	healthpb.RegisterHealthServer(server, healthServer)

	// Register reflection service for tools like Postman, grpcurl, etc.
	reflection.Register(server)

	return server
}
