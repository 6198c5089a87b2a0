// Package middleware - Rate Limiting middleware.
//
// Fixed window counter поверх Redis: лимит делится между всеми
// инстансами сервиса. Redis недоступен - запрос пропускается (fail open),
// защита от abuse не должна ронять переводы.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig - конфигурация для rate limiting.
type RateLimitConfig struct {
	// Client - Redis клиент
	Client *redis.Client
	// Limit - запросов за окно
	Limit int
	// Window - временное окно
	Window time.Duration
	// KeyFunc - функция для определения ключа лимитирования
	// По умолчанию - IP адрес
	KeyFunc func(*gin.Context) string
	// Logger для ошибок Redis
	Logger *slog.Logger
}

// RateLimit middleware для ограничения количества запросов.
//
// Headers:
// - X-RateLimit-Limit: Максимум запросов
// - X-RateLimit-Remaining: Оставшееся количество
// - Retry-After: Секунд до сброса (при 429)
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string {
			return c.ClientIP()
		}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "ratelimit:" + config.KeyFunc(c)

		count, err := config.Client.Incr(ctx, key).Result()
		if err != nil {
			config.Logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
				slog.String("error", err.Error()))
			c.Next()
			return
		}

		if count == 1 {
			config.Client.Expire(ctx, key, config.Window)
		}

		remaining := config.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > config.Limit {
			ttl, err := config.Client.TTL(ctx, key).Result()
			retrySeconds := int(config.Window.Seconds())
			if err == nil && ttl > 0 {
				retrySeconds = int(ttl.Seconds())
			}
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retrySeconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "TOO_MANY_REQUESTS",
					"message":     "Rate limit exceeded, please try again later",
					"retry_after": retrySeconds,
				},
				"request_id": GetRequestID(c),
				"timestamp":  time.Now().UTC(),
			})
			return
		}

		c.Next()
	}
}
