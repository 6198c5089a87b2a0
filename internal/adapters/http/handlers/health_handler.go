// Package handlers - Health check handlers.
//
// Два типа health checks:
// - Liveness: Приложение работает? (если нет - restart)
// - Readiness: Приложение готово принимать трафик? (если нет - no traffic)
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/middleware"
)

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	pool      *pgxpool.Pool
	version   string
	startTime time.Time
}

// NewHealthHandler создаёт новый HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"` // "healthy", "unhealthy"
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health возвращает базовый health статус.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// Ready проверяет готовность приложения: store должен отвечать.
//
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := make(map[string]string)
	allReady := true

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.Ping(ctx); err != nil {
			checks["store"] = "unhealthy: " + err.Error()
			allReady = false
		} else {
			stats := h.pool.Stat()
			checks["store"] = "healthy"
			checks["store_total_conns"] = strconv.Itoa(int(stats.TotalConns()))
			checks["store_idle_conns"] = strconv.Itoa(int(stats.IdleConns()))

			middleware.UpdateStoreConnections(stats.IdleConns(), stats.AcquiredConns(), stats.MaxConns())
		}
	} else {
		checks["store"] = "not configured"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allReady {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// Live возвращает статус "живости" приложения.
//
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// RegisterRoutes регистрирует health check маршруты.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
}
