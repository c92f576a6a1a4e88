package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/database"
	kafkainfra "github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/kafka"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/logger"
	redisinfra "github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/redis"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/security"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/telemetry"
	postgresrepo "github.com/wojiaofengzhongzhuifeng/count-number/internal/repository/postgres"
	redisrepo "github.com/wojiaofengzhongzhuifeng/count-number/internal/repository/redis"
	transportgrpc "github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/grpc"
	grpcinterceptors "github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/grpc/interceptors"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/middleware"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/routes"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/usecase"
)

const metricsNamespace = "count_number"

type Application struct {
	cfg            *config.AppConfig
	engine         *gin.Engine
	logger         *zap.Logger
	pool           *pgxpool.Pool
	redis          *redisinfra.Client
	producer       *kafkainfra.Producer
	tracer         *telemetry.TracerProvider
	grpcServer     *grpc.Server
	grpcAddr       string
	healthReporter *transportgrpc.HealthReporter
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init redis: %w", err)
	}

	verifier, err := security.NewTokenVerifier(security.VerifierOptions{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer, metricsNamespace)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Namespace: metricsNamespace})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{Namespace: metricsNamespace})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init grpc metrics: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	cache := redisrepo.NewCacheRepository(redisClient.Client(), cfg.Redis.CachePrefix)
	counterCache := redisrepo.NewCounterCacheRepository(redisClient.Client(), cfg.Redis.CounterPrefix)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix)

	// Initialize Kafka event publisher
	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
			producer = nil
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	counterService := usecase.NewCounterService(repos.Counters, cache, counterCache, eventPublisher, log).
		WithTTLs(usecase.CounterTTLs{List: cfg.Cache.ListTTL, Counter: cfg.Cache.CounterTTL}).
		WithMetrics(metrics)
	taskService := usecase.NewTaskService(repos.Tasks, cache, eventPublisher, log).
		WithListTTL(cfg.Cache.ListTTL).
		WithMetrics(metrics)
	preferencesService := usecase.NewPreferencesService(repos.Preferences, cache, log).
		WithTTL(cfg.Cache.PreferencesTTL).
		WithMetrics(metrics)

	failurePolicy := domain.NewFailurePolicy(domain.ParseFailurePolicyMode(cfg.RateLimit.FailurePolicy))
	rateLimiter := middleware.NewRateLimiter(usecase.NewRateLimitService(rateLimitStore), failurePolicy, log).
		WithMetrics(metrics)

	healthServer := health.NewServer()
	healthReporter := transportgrpc.NewHealthReporter(healthServer, cfg.GRPC.HealthCheckInterval, log).
		AddCheck("postgres", pool.Ping).
		AddCheck("redis", redisClient.HealthCheck)

	grpcSrv := transportgrpc.NewServer(transportgrpc.ServerDependencies{
		Health:  healthServer,
		Metrics: grpcMetrics,
		Logger:  log,
	})

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     httpMetrics,
		RateLimiter: rateLimiter,
		Verifier:    verifier,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Counters:    counterService,
			Tasks:       taskService,
			Preferences: preferencesService,
		},
	})

	return &Application{
		cfg:            cfg,
		engine:         engine,
		logger:         log,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		tracer:         tracer,
		grpcServer:     grpcSrv,
		grpcAddr:       fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port),
		healthReporter: healthReporter,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("kafka producer close failed", zap.Error(err))
			}
		}
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	go a.healthReporter.Run(healthCtx)

	grpcErrCh := make(chan error, 1)
	lis, err := net.Listen("tcp", a.grpcAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	a.logger.Info("starting gRPC server",
		zap.String("address", a.grpcAddr),
	)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("gRPC server panicked", zap.Any("panic", r))
				grpcErrCh <- fmt.Errorf("grpc server panicked: %v", r)
			}
		}()
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			a.logger.Error("gRPC server error", zap.Error(err))
			grpcErrCh <- fmt.Errorf("run grpc server: %w", err)
		} else {
			a.logger.Info("gRPC server stopped gracefully")
		}
	}()
	defer a.grpcServer.GracefulStop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting count-number API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		stopHealth()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-grpcErrCh:
		return err
	}
}
