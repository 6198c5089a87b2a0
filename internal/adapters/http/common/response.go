// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// APIResponse - стандартный формат ответа API.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError - структура ошибки API.
//
// Code - машиночитаемый код из error taxonomy. Retryable=true сигнализирует
// клиенту, что повтор с тем же idempotency key безопасен.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Fields     []FieldError           `json:"fields,omitempty"`
	Retryable  bool                   `json:"retryable,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
}

// FieldError - ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
)

const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID устанавливает Request ID в контекст.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error отправляет ответ с ошибкой.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ValidationErrorResponse создаёт ответ для ошибок валидации тела запроса.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    string(domainerrors.CodeValidation),
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// BadRequestResponse создаёт ответ для некорректного запроса.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// UnauthorizedResponse создаёт ответ для 401.
func UnauthorizedResponse(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}

// TooManyRequestsResponse создаёт ответ для rate limiting.
func TooManyRequestsResponse(c *gin.Context, retryAfter int) {
	Error(c, http.StatusTooManyRequests, &APIError{
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	})
}

// statusByCode - отображение error taxonomy на HTTP статусы.
//
// Retryable коды отображаются на 503: запрос корректен, но store
// временно не смог его выполнить.
var statusByCode = map[domainerrors.Code]int{
	domainerrors.CodeValidation:           http.StatusBadRequest,
	domainerrors.CodeNotFound:             http.StatusNotFound,
	domainerrors.CodeInsufficientBalance:  http.StatusUnprocessableEntity,
	domainerrors.CodeDuplicateTransaction: http.StatusConflict,
	domainerrors.CodeConstraintViolation:  http.StatusConflict,
	domainerrors.CodeDeadlockDetected:     http.StatusServiceUnavailable,
	domainerrors.CodeSerializationFailure: http.StatusServiceUnavailable,
	domainerrors.CodeStatementTimeout:     http.StatusServiceUnavailable,
	domainerrors.CodeConnectionTimeout:    http.StatusServiceUnavailable,
	domainerrors.CodeInternal:             http.StatusInternalServerError,
}

// HandleDomainError преобразует domain error в HTTP response.
//
// hideInternals скрывает детали INTERNAL ошибок от клиента (production).
func HandleDomainError(c *gin.Context, err error, hideInternals bool) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = domainerrors.NewInternal(err)
	}

	statusCode, ok := statusByCode[domainErr.Code]
	if !ok {
		statusCode = http.StatusInternalServerError
	}

	message := domainErr.Message
	details := domainErr.Context
	if domainErr.Code == domainerrors.CodeInternal && hideInternals {
		message = "An unexpected error occurred"
		details = nil
	}

	apiError := &APIError{
		Code:      string(domainErr.Code),
		Message:   message,
		Details:   details,
		Retryable: domainErr.Retryable(),
	}
	if apiError.Retryable {
		apiError.RetryAfter = 1
		c.Header("Retry-After", "1")
	}

	Error(c, statusCode, apiError)
}
