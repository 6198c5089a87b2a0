// Package config - Application configuration management.
//
// Использует Viper для:
// - Загрузки из YAML файлов
// - Переменных окружения
// - Значений по умолчанию
//
// Порядок приоритета (от высшего к низшему):
// 1. Environment variables
// 2. Config file
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - главная структура конфигурации сервиса.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Store        StoreConfig        `mapstructure:"store"`
	Auth         AuthConfig         `mapstructure:"auth"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Idempotency  IdempotencyConfig  `mapstructure:"idempotency"`
	Transactions TransactionsConfig `mapstructure:"transactions"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	Log          LogConfig          `mapstructure:"log"`
}

// AppConfig - конфигурация приложения.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
}

// IsDevelopment возвращает true если окружение development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction возвращает true если окружение production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address возвращает полный адрес сервера.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig - конфигурация PostgreSQL store.
//
// Таймауты участвуют в error taxonomy: превышение
// connection_acquire_timeout → CONNECTION_TIMEOUT, превышение
// statement_timeout → STATEMENT_TIMEOUT.
type StoreConfig struct {
	Host                     string        `mapstructure:"host"`
	Port                     int           `mapstructure:"port"`
	User                     string        `mapstructure:"user"`
	Password                 string        `mapstructure:"password"`
	Database                 string        `mapstructure:"database"`
	SSLMode                  string        `mapstructure:"ssl_mode"`
	ConnectionLimit          int32         `mapstructure:"connection_limit"`
	ConnectionAcquireTimeout time.Duration `mapstructure:"connection_acquire_timeout"`
	StatementTimeout         time.Duration `mapstructure:"statement_timeout"`
	IdleTimeout              time.Duration `mapstructure:"idle_timeout"`
}

// AuthConfig - конфигурация аутентификации сервисных клиентов.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// RateLimitConfig - конфигурация rate limiting (Redis-backed).
type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
	RedisDB           int    `mapstructure:"redis_db"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// IdempotencyConfig - конфигурация кэша идемпотентности.
type IdempotencyConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// TransactionsConfig - пагинация истории транзакций.
type TransactionsConfig struct {
	HistoryDefaultLimit int `mapstructure:"history_default_limit"`
	HistoryMaxLimit     int `mapstructure:"history_max_limit"`
}

// NATSConfig - конфигурация публикации событий.
type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// TelemetryConfig - конфигурация трейсинга.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port OTLP/HTTP collector
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LogConfig - конфигурация логирования.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load загружает конфигурацию из файла и переменных окружения.
//
// configPath - путь к директории с конфигурацией (например, "configs")
// configName - имя файла конфигурации без расширения (например, "config")
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/walletcore")

	v.SetEnvPrefix("WALLETCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Файл не найден - используем defaults и env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "walletcore")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Store defaults
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.user", "postgres")
	v.SetDefault("store.password", "postgres")
	v.SetDefault("store.database", "walletcore")
	v.SetDefault("store.ssl_mode", "disable")
	v.SetDefault("store.connection_limit", 20)
	v.SetDefault("store.connection_acquire_timeout", "5s")
	v.SetDefault("store.statement_timeout", "10s")
	v.SetDefault("store.idle_timeout", "30s")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.jwt_issuer", "walletcore")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.redis_addr", "localhost:6379")
	v.SetDefault("rate_limit.redis_db", 0)
	v.SetDefault("rate_limit.requests_per_minute", 300)

	// Idempotency defaults
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.sweep_interval", "1h")

	// Transactions defaults
	v.SetDefault("transactions.history_default_limit", 20)
	v.SetDefault("transactions.history_max_limit", 100)

	// NATS defaults
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "walletcore")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate валидирует конфигурацию.
func (c *Config) Validate() error {
	if c.App.IsProduction() {
		if c.Auth.Enabled && c.Auth.JWTSecret == "change-me-in-production" {
			return fmt.Errorf("JWT secret must be changed in production")
		}
	}

	if c.Store.Host == "" {
		return fmt.Errorf("store host is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Store.ConnectionLimit <= 0 {
		return fmt.Errorf("store connection limit must be positive")
	}

	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("idempotency TTL must be positive")
	}

	if c.Transactions.HistoryDefaultLimit <= 0 ||
		c.Transactions.HistoryMaxLimit < c.Transactions.HistoryDefaultLimit {
		return fmt.Errorf("invalid transaction history limits: default=%d max=%d",
			c.Transactions.HistoryDefaultLimit, c.Transactions.HistoryMaxLimit)
	}

	return nil
}

// Development возвращает конфигурацию для разработки.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "walletcore",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Host:                     "localhost",
			Port:                     5432,
			User:                     "postgres",
			Password:                 "postgres",
			Database:                 "walletcore",
			SSLMode:                  "disable",
			ConnectionLimit:          20,
			ConnectionAcquireTimeout: 5 * time.Second,
			StatementTimeout:         10 * time.Second,
			IdleTimeout:              30 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:   false,
			JWTSecret: "dev-secret-key",
			JWTIssuer: "walletcore-dev",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RedisAddr:         "localhost:6379",
			RequestsPerMinute: 300,
		},
		Idempotency: IdempotencyConfig{
			TTL:           24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Transactions: TransactionsConfig{
			HistoryDefaultLimit: 20,
			HistoryMaxLimit:     100,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			SubjectPrefix: "walletcore",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1.0,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
		},
	}
}

// Test возвращает конфигурацию для тестов.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Store.Database = "walletcore_test"
	cfg.Log.Level = "error" // Меньше шума в тестах
	return cfg
}
