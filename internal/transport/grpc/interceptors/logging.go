package interceptors

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	appLogger "github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/logger"
)

const healthService = "grpc.health.v1.Health"

// LoggingInterceptor logs one line per unary call. Health probes are logged at debug level.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		service, method := splitFullMethod(info.FullMethod)
		fields := []zap.Field{
			zap.String("service", service),
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("peer", appLogger.MaskIP(hostOf(p.Addr.String()))))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		level := levelFor(code)
		if service == healthService && level == zapcore.InfoLevel {
			level = zapcore.DebugLevel
		}
		if ce := log.Check(level, "grpc request"); ce != nil {
			ce.Write(fields...)
		}

		return resp, err
	}
}

func levelFor(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK, codes.NotFound, codes.Canceled:
		return zapcore.InfoLevel
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable, codes.DeadlineExceeded:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
