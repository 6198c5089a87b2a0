// Package middleware - Logging middleware для структурированного логирования.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingConfig - конфигурация для logging middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string // Пути для пропуска логирования (e.g., /health)
}

// DefaultLoggingConfig - конфигурация по умолчанию.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready", "/live", "/metrics"},
	}
}

// Logging middleware для структурированного логирования HTTP запросов.
//
// Уровень записи зависит от статуса: 5xx - error, 4xx - warn, иначе info.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("response_size", c.Writer.Size()),
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		} else if c.Writer.Status() >= 400 {
			level = slog.LevelWarn
		}

		config.Logger.LogAttrs(c.Request.Context(), level, "HTTP Request", attrs...)
	}
}
