package interceptors

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/stats"
)

// TracingOptions customises the OpenTelemetry server handler.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Additional     []otelgrpc.Option
}

// NewServerStatsHandler builds an OpenTelemetry stats handler that traces unary and stream calls.
// Health probes are excluded.
func NewServerStatsHandler(opts TracingOptions) stats.Handler {
	options := make([]otelgrpc.Option, 0, len(opts.Additional)+3)
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	options = append(options, otelgrpc.WithFilter(func(info *stats.RPCTagInfo) bool {
		service, _ := splitFullMethod(info.FullMethodName)
		return service != healthService
	}))
	options = append(options, opts.Additional...)

	return otelgrpc.NewServerHandler(options...)
}
