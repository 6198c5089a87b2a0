// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (lazy initialization)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/arcadia-gg/walletcore/internal/adapters/http"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/application/usecases/transfer"
	"github.com/arcadia-gg/walletcore/internal/config"
	natspub "github.com/arcadia-gg/walletcore/internal/infrastructure/messaging/nats"
	"github.com/arcadia-gg/walletcore/internal/infrastructure/persistence/postgres"
	"github.com/arcadia-gg/walletcore/internal/pkg/logger"
	"github.com/arcadia-gg/walletcore/internal/pkg/telemetry"
)

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *redis.Client
	publisher   *natspub.Publisher
	tracing     *telemetry.Provider

	// Repositories
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	ledgerRepo      ports.LedgerRepository
	idempotencyRepo ports.IdempotencyRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Use Cases
	topUpUC            *transfer.TopUpUseCase
	issueBonusUC       *transfer.IssueBonusUseCase
	purchaseUC         *transfer.PurchaseUseCase
	getBalanceUC       *transfer.GetBalanceUseCase
	listTransactionsUC *transfer.ListTransactionsUseCase

	// Background workers
	sweeperStop chan struct{}

	// HTTP
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.initLogger()
	c.logger.Info("Initializing application container...")

	if err := c.initTelemetry(ctx); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if err := c.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.logger.Info("Store connected")

	c.initRedis()
	if err := c.initPublisher(); err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}

	c.initRepositories()
	c.initUseCases()
	c.startIdempotencySweeper()
	c.initHTTPServer()

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() {
	logger.Setup(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		AddSource: c.config.App.Debug,
	})
	c.logger = slog.Default()
}

// initTelemetry инициализирует tracing provider.
func (c *Container) initTelemetry(ctx context.Context) error {
	provider, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     c.config.Telemetry.Enabled,
		ServiceName: c.config.App.Name,
		Endpoint:    c.config.Telemetry.Endpoint,
		Insecure:    c.config.Telemetry.Insecure,
		SampleRatio: c.config.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.tracing = provider
	return nil
}

// initStore инициализирует подключение к PostgreSQL.
func (c *Container) initStore(ctx context.Context) error {
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:             c.config.Store.Host,
		Port:             c.config.Store.Port,
		User:             c.config.Store.User,
		Password:         c.config.Store.Password,
		Database:         c.config.Store.Database,
		SSLMode:          c.config.Store.SSLMode,
		ConnectionLimit:  c.config.Store.ConnectionLimit,
		AcquireTimeout:   c.config.Store.ConnectionAcquireTimeout,
		StatementTimeout: c.config.Store.StatementTimeout,
		IdleTimeout:      c.config.Store.IdleTimeout,
	})
	if err != nil {
		return err
	}
	c.pool = pool
	return nil
}

// initRedis инициализирует Redis клиент для rate limiting.
func (c *Container) initRedis() {
	if !c.config.RateLimit.Enabled {
		return
	}
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:     c.config.RateLimit.RedisAddr,
		Password: c.config.RateLimit.RedisPassword,
		DB:       c.config.RateLimit.RedisDB,
	})
}

// initPublisher инициализирует NATS publisher.
func (c *Container) initPublisher() error {
	if !c.config.NATS.Enabled {
		return nil
	}
	publisher, err := natspub.Connect(c.config.NATS.URL, c.config.NATS.SubjectPrefix, c.logger)
	if err != nil {
		return err
	}
	c.publisher = publisher
	c.logger.Info("NATS publisher connected", slog.String("url", c.config.NATS.URL))
	return nil
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.ledgerRepo = postgres.NewLedgerRepository(c.pool)
	c.idempotencyRepo = postgres.NewIdempotencyRepository(c.pool)

	c.uow = postgres.NewUnitOfWork(c.pool, c.config.Store.ConnectionAcquireTimeout)
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() {
	var publisher ports.EventPublisher
	if c.publisher != nil {
		publisher = c.publisher
	}

	c.topUpUC = transfer.NewTopUpUseCase(
		c.walletRepo, c.transactionRepo, c.ledgerRepo, c.idempotencyRepo,
		publisher, c.uow, c.config.Idempotency.TTL, c.logger,
	)
	c.issueBonusUC = transfer.NewIssueBonusUseCase(
		c.walletRepo, c.transactionRepo, c.ledgerRepo, c.idempotencyRepo,
		publisher, c.uow, c.config.Idempotency.TTL, c.logger,
	)
	c.purchaseUC = transfer.NewPurchaseUseCase(
		c.walletRepo, c.transactionRepo, c.ledgerRepo, c.idempotencyRepo,
		publisher, c.uow, c.config.Idempotency.TTL, c.logger,
	)
	c.getBalanceUC = transfer.NewGetBalanceUseCase(c.walletRepo)
	c.listTransactionsUC = transfer.NewListTransactionsUseCase(
		c.transactionRepo,
		c.config.Transactions.HistoryDefaultLimit,
		c.config.Transactions.HistoryMaxLimit,
	)
}

// startIdempotencySweeper запускает фоновую очистку истёкших записей
// кэша идемпотентности. Истёкшие записи логически невидимы и без
// sweeper'а; он лишь освобождает место.
func (c *Container) startIdempotencySweeper() {
	interval := c.config.Idempotency.SweepInterval
	if interval <= 0 {
		return
	}

	c.sweeperStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				purged, err := c.idempotencyRepo.PurgeExpired(ctx)
				cancel()
				if err != nil {
					c.logger.Warn("idempotency sweep failed", slog.String("error", err.Error()))
					continue
				}
				if purged > 0 {
					c.logger.Info("idempotency records purged", slog.Int64("count", purged))
				}
			case <-c.sweeperStop:
				return
			}
		}
	}()
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	router := http.NewRouter(
		&http.RouterConfig{
			Logger:            c.logger,
			Pool:              c.pool,
			Version:           c.config.App.Version,
			Environment:       c.config.App.Environment,
			ServiceName:       c.config.App.Name,
			TracingEnabled:    c.config.Telemetry.Enabled,
			AuthEnabled:       c.config.Auth.Enabled,
			AuthSecret:        c.config.Auth.JWTSecret,
			AuthIssuer:        c.config.Auth.JWTIssuer,
			RateLimitEnabled:  c.config.RateLimit.Enabled,
			RedisClient:       c.redisClient,
			RequestsPerMinute: c.config.RateLimit.RequestsPerMinute,
		},
		&http.UseCases{
			TopUp:            c.topUpUC,
			IssueBonus:       c.issueBonusUC,
			Purchase:         c.purchaseUC,
			GetBalance:       c.getBalanceUC,
			ListTransactions: c.listTransactionsUC,
		},
	)

	c.httpServer = http.NewServer(&http.ServerConfig{
		Addr:            c.config.Server.Address(),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}, router)
}

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к store.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// WalletRepository возвращает репозиторий кошельков.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// TransactionRepository возвращает репозиторий транзакций.
func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.transactionRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting wallet core API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.sweeperStop != nil {
		close(c.sweeperStop)
	}

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("NATS publisher close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.tracing != nil {
		if err := c.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	// Даём активным транзакциям завершиться
	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Store connection closed")
		case <-ctx.Done():
			c.logger.Warn("Store close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
