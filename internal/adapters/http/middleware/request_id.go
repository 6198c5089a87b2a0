// Package middleware содержит HTTP middleware для обработки запросов.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: логирование, auth, tracing.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/pkg/logger"
)

const (
	// RequestIDHeader - имя заголовка для Request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey - ключ для хранения Request ID в контексте
	RequestIDContextKey = "request_id"
)

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его, иначе генерируем
// новый UUID. ID прокидывается и в request context, чтобы logger
// автоматически добавлял его в каждую запись.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDContextKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}
