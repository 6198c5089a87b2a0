// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
// Handlers получают только нужные им use cases, middleware применяется
// к соответствующим группам routes.
package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/common"
	"github.com/arcadia-gg/walletcore/internal/adapters/http/handlers"
	"github.com/arcadia-gg/walletcore/internal/adapters/http/middleware"
)

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Pool для health checks
	Pool *pgxpool.Pool
	// Version приложения
	Version string
	// Environment (development, staging, production)
	Environment string
	// ServiceName для tracing spans
	ServiceName string
	// TracingEnabled включает otelgin middleware
	TracingEnabled bool

	// AuthEnabled включает проверку Bearer токенов на /api/v1
	AuthEnabled bool
	AuthSecret  string
	AuthIssuer  string

	// RateLimitEnabled включает Redis-backed rate limiting
	RateLimitEnabled  bool
	RedisClient       *redis.Client
	RequestsPerMinute int
}

// UseCases - use cases, которые обслуживает API.
type UseCases struct {
	TopUp            handlers.TransferUseCase
	IssueBonus       handlers.TransferUseCase
	Purchase         handlers.TransferUseCase
	GetBalance       handlers.GetBalanceUseCase
	ListTransactions handlers.ListTransactionsUseCase
}

// NewRouter создаёт сконфигурированный Gin Engine.
func NewRouter(config *RouterConfig, useCases *UseCases) *gin.Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           config.Logger,
		EnableStackTrace: config.Environment != "production",
	}))

	router.Use(middleware.RequestID())

	if config.TracingEnabled {
		router.Use(otelgin.Middleware(config.ServiceName))
	}

	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(config.Pool, config.Version)
	healthHandler.RegisterRoutes(router)

	hideInternals := config.Environment == "production"

	v1 := router.Group("/api/v1")

	if config.AuthEnabled {
		v1.Use(middleware.Auth(&middleware.AuthConfig{
			Secret: config.AuthSecret,
			Issuer: config.AuthIssuer,
		}))
	}

	if config.RateLimitEnabled && config.RedisClient != nil {
		v1.Use(middleware.RateLimit(&middleware.RateLimitConfig{
			Client: config.RedisClient,
			Limit:  config.RequestsPerMinute,
			Window: time.Minute,
			Logger: config.Logger,
		}))
	}

	transferHandler := handlers.NewTransferHandler(
		useCases.TopUp,
		useCases.IssueBonus,
		useCases.Purchase,
		hideInternals,
	)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("/top-up", transferHandler.TopUp)
		transfers.POST("/bonus", transferHandler.IssueBonus)
		transfers.POST("/purchase", transferHandler.Purchase)
	}

	walletHandler := handlers.NewWalletHandler(
		useCases.GetBalance,
		useCases.ListTransactions,
		hideInternals,
	)
	users := v1.Group("/users")
	{
		users.GET("/:user_id/balance", walletHandler.GetBalance)
		users.GET("/:user_id/transactions", walletHandler.ListTransactions)
	}

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}
