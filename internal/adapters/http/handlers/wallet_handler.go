// Package handlers - Wallet query HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcadia-gg/walletcore/internal/adapters/http/common"
	"github.com/arcadia-gg/walletcore/internal/application/dtos"
)

// GetBalanceUseCase - интерфейс запроса балансов.
type GetBalanceUseCase interface {
	Execute(ctx context.Context, userID, assetCode string) ([]dtos.WalletBalanceDTO, error)
}

// ListTransactionsUseCase - интерфейс запроса истории транзакций.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.HistoryQuery) ([]dtos.TransactionHistoryDTO, error)
}

// WalletHandler обрабатывает запросы чтения кошельков.
type WalletHandler struct {
	getBalance       GetBalanceUseCase
	listTransactions ListTransactionsUseCase
	hideInternals    bool
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(getBalance GetBalanceUseCase, listTransactions ListTransactionsUseCase, hideInternals bool) *WalletHandler {
	return &WalletHandler{
		getBalance:       getBalance,
		listTransactions: listTransactions,
		hideInternals:    hideInternals,
	}
}

// UserIDParam - параметр ID пользователя из URL.
type UserIDParam struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

// BalanceParams - query параметры запроса баланса.
type BalanceParams struct {
	AssetCode string `form:"asset" binding:"omitempty,asset_code"`
}

// HistoryParams - query параметры истории транзакций.
type HistoryParams struct {
	AssetCode string `form:"asset" binding:"omitempty,asset_code"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// GetBalance возвращает балансы кошельков пользователя.
//
// @Summary Get user wallet balances
// @Description All balances of the user, or a single one when ?asset= is given
// @Tags Wallets
// @Produce json
// @Param user_id path string true "User ID"
// @Param asset query string false "Asset code"
// @Success 200 {object} common.APIResponse{data=[]dtos.WalletBalanceDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "User has no wallets"
// @Router /api/v1/users/{user_id}/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var param UserIDParam
	if !BindURI(c, &param) {
		return
	}
	var params BalanceParams
	if !BindQuery(c, &params) {
		return
	}

	balances, err := h.getBalance.Execute(c.Request.Context(), param.UserID, params.AssetCode)
	if err != nil {
		common.HandleDomainError(c, err, h.hideInternals)
		return
	}

	common.Success(c, http.StatusOK, balances)
}

// ListTransactions возвращает историю транзакций пользователя.
//
// @Summary List user transactions
// @Description Ledger-joined transaction history, newest first
// @Tags Wallets
// @Produce json
// @Param user_id path string true "User ID"
// @Param asset query string false "Asset code filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} common.APIResponse{data=[]dtos.TransactionHistoryDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/users/{user_id}/transactions [get]
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var param UserIDParam
	if !BindURI(c, &param) {
		return
	}
	var params HistoryParams
	if !BindQuery(c, &params) {
		return
	}

	history, err := h.listTransactions.Execute(c.Request.Context(), dtos.HistoryQuery{
		UserID:    param.UserID,
		AssetCode: params.AssetCode,
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		common.HandleDomainError(c, err, h.hideInternals)
		return
	}

	common.Success(c, http.StatusOK, history)
}
