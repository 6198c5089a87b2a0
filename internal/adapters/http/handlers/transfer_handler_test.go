package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/common"
	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// mockTransferUseCase - мок TransferUseCase с настраиваемым поведением.
type mockTransferUseCase struct {
	executeFunc func(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error)

	gotCmd *dtos.TransferCommand
}

func (m *mockTransferUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	m.gotCmd = &cmd
	if m.executeFunc != nil {
		return m.executeFunc(ctx, cmd)
	}
	return nil, domainerrors.New(domainerrors.CodeInternal, "not configured")
}

func setupTransferRouter(topUp, bonus, purchase TransferUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	handler := NewTransferHandler(topUp, bonus, purchase, false)

	router := gin.New()
	router.POST("/transfers/top-up", handler.TopUp)
	router.POST("/transfers/bonus", handler.IssueBonus)
	router.POST("/transfers/purchase", handler.Purchase)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func freshResult(amount int64) *dtos.TransferResult {
	return &dtos.TransferResult{
		TransactionID: uuid.New(),
		Kind:          entities.TransactionKindTopUp,
		AssetCode:     "GOLD_COINS",
		Amount:        amount,
	}
}

func TestTransferHandler_TopUp_Created(t *testing.T) {
	uc := &mockTransferUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
			return freshResult(cmd.Amount), nil
		},
	}
	router := setupTransferRouter(uc, &mockTransferUseCase{}, &mockTransferUseCase{})

	w := postJSON(t, router, "/transfers/top-up", gin.H{
		"user_id":         uuid.NewString(),
		"asset_code":      "GOLD_COINS",
		"amount":          500,
		"idempotency_key": "topup-1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	require.NotNil(t, uc.gotCmd)
	assert.Equal(t, int64(500), uc.gotCmd.Amount)
	assert.Equal(t, "topup-1", uc.gotCmd.IdempotencyKey)
}

func TestTransferHandler_IdempotentReplayReturnsOK(t *testing.T) {
	uc := &mockTransferUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
			result := freshResult(cmd.Amount)
			result.Idempotent = true
			return result, nil
		},
	}
	router := setupTransferRouter(uc, &mockTransferUseCase{}, &mockTransferUseCase{})

	w := postJSON(t, router, "/transfers/top-up", gin.H{
		"user_id":         uuid.NewString(),
		"asset_code":      "GOLD_COINS",
		"amount":          500,
		"idempotency_key": "topup-1",
	})

	// Повтор отдаёт 200, свежий перевод - 201
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTransferHandler_ValidationErrors(t *testing.T) {
	uc := &mockTransferUseCase{}
	router := setupTransferRouter(uc, uc, uc)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing user id", gin.H{"asset_code": "GOLD_COINS", "amount": 10}},
		{"malformed user id", gin.H{"user_id": "abc", "asset_code": "GOLD_COINS", "amount": 10}},
		{"lowercase asset code", gin.H{"user_id": uuid.NewString(), "asset_code": "gold", "amount": 10}},
		{"zero amount", gin.H{"user_id": uuid.NewString(), "asset_code": "GOLD_COINS", "amount": 0}},
		{"negative amount", gin.H{"user_id": uuid.NewString(), "asset_code": "GOLD_COINS", "amount": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/transfers/purchase", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp common.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.NotEmpty(t, resp.Error.Fields)
		})
	}

	// Use case не вызывался
	assert.Nil(t, uc.gotCmd)
}

func TestTransferHandler_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"wallet not found", domainerrors.NewNotFound("wallet", ""), http.StatusNotFound},
		{"insufficient balance", domainerrors.NewInsufficientBalance(uuid.New(), 100, 10), http.StatusUnprocessableEntity},
		{"duplicate key", domainerrors.NewDuplicateTransaction("k"), http.StatusConflict},
		{"deadlock", domainerrors.New(domainerrors.CodeDeadlockDetected, "deadlock"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockTransferUseCase{
				executeFunc: func(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
					return nil, tt.err
				},
			}
			router := setupTransferRouter(&mockTransferUseCase{}, &mockTransferUseCase{}, uc)

			w := postJSON(t, router, "/transfers/purchase", gin.H{
				"user_id":    uuid.NewString(),
				"asset_code": "GOLD_COINS",
				"amount":     100,
			})

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestTransferHandler_RetryableErrorSetsHeader(t *testing.T) {
	uc := &mockTransferUseCase{
		executeFunc: func(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
			return nil, domainerrors.New(domainerrors.CodeConnectionTimeout, "pool exhausted")
		},
	}
	router := setupTransferRouter(uc, &mockTransferUseCase{}, &mockTransferUseCase{})

	w := postJSON(t, router, "/transfers/top-up", gin.H{
		"user_id":    uuid.NewString(),
		"asset_code": "GOLD_COINS",
		"amount":     10,
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.True(t, resp.Error.Retryable)
}
