// Package middleware - Authentication middleware.
//
// Клиенты сервиса - backend'ы игровых платформ, а не конечные
// пользователи, поэтому claims описывают сервис, а не игрока.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AuthClientIDKey - ключ для хранения client ID в контексте
	AuthClientIDKey = "auth_client_id"
)

// AuthConfig - конфигурация для authentication middleware.
type AuthConfig struct {
	// Secret для проверки HMAC подписи
	Secret string
	// Issuer - ожидаемый издатель токена
	Issuer string
}

// ServiceClaims - данные из токена сервисного клиента.
type ServiceClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Auth middleware для проверки Bearer токена.
//
// Схема работы:
// 1. Извлекает токен из заголовка Authorization
// 2. Проверяет подпись, issuer и expiration
// 3. Добавляет client ID в контекст
func Auth(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims := &ServiceClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(config.Secret), nil
		},
			jwt.WithIssuer(config.Issuer),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			abortWithUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(AuthClientIDKey, claims.ClientID)

		c.Next()
	}
}

// abortWithUnauthorized отправляет 401 ответ.
func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// GetAuthClientID возвращает ID авторизованного сервисного клиента.
func GetAuthClientID(c *gin.Context) string {
	if id, exists := c.Get(AuthClientIDKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}

// IssueServiceToken выписывает токен сервисного клиента.
// Используется в инструментах и тестах; в production токены
// выписывает внешний identity provider.
func IssueServiceToken(secret, issuer, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &ServiceClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
