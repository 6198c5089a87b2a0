// Package handlers - Transfer HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/common"
	"github.com/arcadia-gg/walletcore/internal/adapters/http/middleware"
	"github.com/arcadia-gg/walletcore/internal/application/dtos"
)

// TransferUseCase - интерфейс мутирующей операции перевода.
// TopUp, IssueBonus и Purchase имеют одинаковую сигнатуру.
type TransferUseCase interface {
	Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error)
}

// TransferHandler обрабатывает HTTP запросы переводов.
type TransferHandler struct {
	topUp         TransferUseCase
	issueBonus    TransferUseCase
	purchase      TransferUseCase
	hideInternals bool
}

// NewTransferHandler создаёт новый TransferHandler.
func NewTransferHandler(topUp, issueBonus, purchase TransferUseCase, hideInternals bool) *TransferHandler {
	return &TransferHandler{
		topUp:         topUp,
		issueBonus:    issueBonus,
		purchase:      purchase,
		hideInternals: hideInternals,
	}
}

// TransferRequest - запрос на перевод (единый для трёх операций).
//
// @Description Transfer request body
type TransferRequest struct {
	UserID         string                 `json:"user_id" binding:"required,uuid"`
	AssetCode      string                 `json:"asset_code" binding:"required,asset_code"`
	Amount         int64                  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string                 `json:"idempotency_key" binding:"omitempty,idempotency_key"`
	Description    string                 `json:"description" binding:"omitempty,max=500"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// toCommand преобразует запрос в application command.
func (r *TransferRequest) toCommand() dtos.TransferCommand {
	return dtos.TransferCommand{
		UserID:         r.UserID,
		AssetCode:      r.AssetCode,
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
		Metadata:       r.Metadata,
	}
}

// TopUp зачисляет оплаченную валюту из Treasury на кошелёк пользователя.
//
// @Summary Top up a user wallet
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer data"
// @Success 201 {object} common.APIResponse{data=dtos.TransferResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Duplicate idempotency key"
// @Failure 503 {object} common.APIResponse "Retryable store failure"
// @Router /api/v1/transfers/top-up [post]
func (h *TransferHandler) TopUp(c *gin.Context) {
	h.execute(c, h.topUp, "TOP_UP")
}

// IssueBonus зачисляет бонусную валюту из Treasury.
//
// @Summary Issue bonus currency to a user wallet
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer data"
// @Success 201 {object} common.APIResponse{data=dtos.TransferResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Duplicate idempotency key"
// @Failure 503 {object} common.APIResponse "Retryable store failure"
// @Router /api/v1/transfers/bonus [post]
func (h *TransferHandler) IssueBonus(c *gin.Context) {
	h.execute(c, h.issueBonus, "BONUS")
}

// Purchase списывает валюту с кошелька пользователя в Revenue.
//
// @Summary Spend user currency on an in-game purchase
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer data"
// @Success 201 {object} common.APIResponse{data=dtos.TransferResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Duplicate idempotency key"
// @Failure 422 {object} common.APIResponse "Insufficient balance"
// @Failure 503 {object} common.APIResponse "Retryable store failure"
// @Router /api/v1/transfers/purchase [post]
func (h *TransferHandler) Purchase(c *gin.Context) {
	h.execute(c, h.purchase, "PURCHASE")
}

// execute - общий путь трёх операций: bind, use case, метрики, ответ.
func (h *TransferHandler) execute(c *gin.Context, useCase TransferUseCase, kind string) {
	var req TransferRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := useCase.Execute(c.Request.Context(), req.toCommand())
	if err != nil {
		middleware.RecordTransfer(kind, req.AssetCode, "error", 0)
		common.HandleDomainError(c, err, h.hideInternals)
		return
	}

	if result.Idempotent {
		middleware.RecordIdempotentReplay(kind)
		common.Success(c, http.StatusOK, result)
		return
	}

	middleware.RecordTransfer(kind, result.AssetCode, "success", result.Amount)
	common.Success(c, http.StatusCreated, result)
}
