package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/handlers"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/transport/http/middleware"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Counters    handlers.CounterService
	Tasks       handlers.TaskService
	Preferences handlers.PreferencesService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Verifier    middleware.TokenVerifier
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.NewErrorResponse(c, "method not allowed"))
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.NewErrorResponse(c, "not found"))
	})

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	data := r.Group("")
	data.Use(buildDataMiddlewares(deps)...)
	{
		if deps.Services.Counters != nil {
			handlers.NewCounterHandler(deps.Services.Counters).RegisterRoutes(data.Group("/counters"))
		}
		if deps.Services.Tasks != nil {
			handlers.NewTaskHandler(deps.Services.Tasks).RegisterRoutes(data.Group("/tasks"))
		}
		if deps.Services.Preferences != nil {
			handlers.NewPreferencesHandler(deps.Services.Preferences).RegisterRoutes(data.Group("/preferences"))
		}
	}

	handlers.RegisterSwagger(r)

	return r
}

// buildDataMiddlewares puts the rate limiter ahead of authentication so unauthenticated floods are
// throttled too.
func buildDataMiddlewares(deps Dependencies) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, 2)

	if deps.RateLimiter != nil && deps.Config.RateLimit.Enabled {
		chain = append(chain, deps.RateLimiter.RateLimit(middleware.RateLimitRule{
			Limit:      deps.Config.RateLimit.Limit,
			Window:     deps.Config.RateLimit.Window,
			Identifier: middleware.ForwardedForIdentifier(),
		}))
	}

	if deps.Verifier != nil {
		chain = append(chain, middleware.RequireAuth(deps.Verifier, deps.Config.Auth.CookieName))
	}

	return chain
}
