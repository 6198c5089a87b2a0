// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
// - Принимает HTTP запрос
// - Преобразует в Command/Query DTO
// - Вызывает Use Case
// - Преобразует результат в HTTP ответ
package handlers

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/common"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

var setupOnce sync.Once

// SetupValidator настраивает кастомные валидаторы для Gin.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Используем json tag для имён полей в ошибках
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("asset_code", validateAssetCode)
			_ = v.RegisterValidation("idempotency_key", validateIdempotencyKey)
		}
	})
}

// validateAssetCode проверяет код актива: заглавные буквы, цифры
// и подчёркивания, например GOLD_COINS.
func validateAssetCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) == 0 || len(code) > 64 {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// validateIdempotencyKey проверяет длину ключа идемпотентности.
func validateIdempotencyKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	return len(key) <= entities.MaxIdempotencyKeyLength
}

// HandleValidationErrors преобразует ошибки валидации в HTTP ответ.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: getValidationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		// Если не удалось распарсить - общая ошибка
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

// getValidationMessage возвращает человекочитаемое сообщение об ошибке.
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "asset_code":
		return "Invalid asset code (uppercase letters, digits and underscores)"
	case "idempotency_key":
		return "Idempotency key is too long"
	default:
		return "Invalid value"
	}
}

// BindJSON биндит JSON тело запроса и возвращает ошибку если что-то не так.
// Возвращает true если успешно, false если была ошибка (ответ уже отправлен).
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery биндит query параметры.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI биндит URI параметры.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}
