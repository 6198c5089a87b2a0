// Package postgres реализует persistence layer поверх PostgreSQL.
//
// Ключевые механизмы:
// - Unit of Work: управление границами транзакций (unit_of_work.go)
// - Row-level locking: SELECT ... FOR UPDATE в отсортированном порядке
// - Классификация ошибок по SQLSTATE кодам (helpers.go)
//
// Два server-side constraint'а являются частью аргумента корректности:
// UNIQUE на transactions.idempotency_key и CHECK на нижнюю границу
// баланса кошелька.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config содержит настройки подключения к PostgreSQL.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// ConnectionLimit - максимум соединений в пуле. Запрос занимает ровно
	// одно соединение на время своей транзакции.
	ConnectionLimit int32
	// AcquireTimeout - таймаут получения соединения из исчерпанного пула.
	// Поверх него - CONNECTION_TIMEOUT.
	AcquireTimeout time.Duration
	// StatementTimeout - server-side таймаут одного statement'а
	// (параметр statement_timeout). Поверх него - STATEMENT_TIMEOUT.
	StatementTimeout time.Duration
	// IdleTimeout - простаивающее соединение закрывается после этого времени.
	IdleTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             5432,
		Database:         "walletcore",
		User:             "postgres",
		Password:         "postgres",
		SSLMode:          "disable",
		ConnectionLimit:  20,
		AcquireTimeout:   5 * time.Second,
		StatementTimeout: 10 * time.Second,
		IdleTimeout:      30 * time.Second,
	}
}

// DSN формирует строку подключения.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NewConnectionPool создаёт пул соединений с настройками из Config.
// statement_timeout устанавливается как runtime параметр каждого
// соединения, поэтому сервер сам отменяет зависшие statements.
func NewConnectionPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.ConnectionLimit
	poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	if cfg.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] =
			fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// HealthCheck проверяет доступность БД. Используется health endpoint'ом.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

// PoolStats - статистика пула для диагностики.
type PoolStats struct {
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	MaxConns      int32
}

// GetPoolStats возвращает текущую статистику пула.
func GetPoolStats(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}
