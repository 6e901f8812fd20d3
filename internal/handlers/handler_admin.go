package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler serves operator actions. Every route sits behind OperatorAuthMiddleware.
type adminHandler struct {
	liquidityService portssvc.LiquiditySvcFacade
	exchangeService  portssvc.ExchangeOperatorSvc
	refundService    portssvc.RefundSvc
}

// RegisterAdminRoutes registers the operator routes on an authenticated group.
func RegisterAdminRoutes(rg *gin.RouterGroup, ls portssvc.LiquiditySvcFacade, es portssvc.ExchangeOperatorSvc, rs portssvc.RefundSvc) {
	h := &adminHandler{liquidityService: ls, exchangeService: es, refundService: rs}

	rg.POST("/liquidity/:currency/deposit", h.depositLiquidity)
	rg.POST("/transactions/:id/cancel", h.cancelTransaction)
	rg.GET("/refunds", h.listRefunds)
	rg.POST("/refunds/:id/resolve", h.resolveRefund)
}

func operatorLogger(c *gin.Context) (*slog.Logger, string, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	operatorID, ok := middleware.GetOperatorIDFromContext(c)
	if !ok {
		logger.Error("Operator ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return logger, "", false
	}
	return logger, operatorID, true
}

// depositLiquidity godoc
// @Summary Deposit liquidity
// @Description Adds treasury funds to the BTC or ZMW pool
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   currency path string true "BTC or ZMW"
// @Param   request body dto.DepositLiquidityRequest true "Amount in the pool's units"
// @Success 200 {object} dto.PoolResponse
// @Failure 400 {object} map[string]string "Invalid currency or amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/admin/liquidity/{currency}/deposit [post]
func (h *adminHandler) depositLiquidity(c *gin.Context) {
	logger, operatorID, ok := operatorLogger(c)
	if !ok {
		return
	}
	currency, err := domain.ParseCurrency(c.Param("currency"))
	if err != nil {
		respondError(c, logger, "deposit liquidity", apperrors.NewValidationError(err.Error()))
		return
	}
	var req dto.DepositLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DepositLiquidity", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Operator depositing liquidity",
		slog.String("operator_id", operatorID),
		slog.String("currency", string(currency)),
		slog.String("amount", req.Amount.String()))

	if err := h.liquidityService.AddLiquidity(c.Request.Context(), currency, req.Amount); err != nil {
		respondError(c, logger, "deposit liquidity", err)
		return
	}
	pool, err := h.liquidityService.GetPool(c.Request.Context(), currency)
	if err != nil {
		respondError(c, logger, "retrieve pool", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLiquidityStatusResponse([]domain.LiquidityPool{*pool}).Pools[0])
}

// cancelTransaction godoc
// @Summary Cancel a pending transaction
// @Description Moves a pending transaction to cancelled and releases its reservation
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   request body dto.CancelTransactionRequest true "Reason"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is no longer pending"
// @Security BearerAuth
// @Router /api/v1/admin/transactions/{id}/cancel [post]
func (h *adminHandler) cancelTransaction(c *gin.Context) {
	logger, operatorID, ok := operatorLogger(c)
	if !ok {
		return
	}
	var req dto.CancelTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CancelTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	id := c.Param("id")
	tx, err := h.exchangeService.CancelTransaction(c.Request.Context(), id, operatorID, req.Reason)
	if err != nil {
		respondError(c, logger.With(slog.String("transaction_id", id)), "cancel transaction", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
}

// listRefunds godoc
// @Summary List manual refunds
// @Tags admin
// @Produce  json
// @Param   status query string false "open or resolved"
// @Success 200 {array} dto.RefundResponse
// @Security BearerAuth
// @Router /api/v1/admin/refunds [get]
func (h *adminHandler) listRefunds(c *gin.Context) {
	logger, _, ok := operatorLogger(c)
	if !ok {
		return
	}
	var params dto.ListRefundsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	var status *domain.RefundStatus
	if params.Status != "" {
		s := domain.RefundStatus(params.Status)
		status = &s
	}
	refunds, err := h.refundService.ListRefunds(c.Request.Context(), status)
	if err != nil {
		respondError(c, logger, "list refunds", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRefundListResponse(refunds))
}

// resolveRefund godoc
// @Summary Resolve a manual refund
// @Description Records that the customer was paid back outside the system
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   id path string true "Refund ID"
// @Param   request body dto.ResolveRefundRequest true "Resolution note"
// @Success 200 {object} dto.RefundResponse
// @Failure 404 {object} map[string]string "Refund not found or already resolved"
// @Security BearerAuth
// @Router /api/v1/admin/refunds/{id}/resolve [post]
func (h *adminHandler) resolveRefund(c *gin.Context) {
	logger, operatorID, ok := operatorLogger(c)
	if !ok {
		return
	}
	var req dto.ResolveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	refund, err := h.refundService.ResolveRefund(c.Request.Context(), c.Param("id"), operatorID, req.Note)
	if err != nil {
		respondError(c, logger, "resolve refund", err)
		return
	}

	logger.Info("Refund resolved", slog.String("refund_id", refund.ID), slog.String("operator_id", operatorID))
	c.JSON(http.StatusOK, dto.ToRefundResponse(refund))
}
