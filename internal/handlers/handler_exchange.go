package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/gin-gonic/gin"
)

// exchangeHandler handles the public exchange API.
type exchangeHandler struct {
	exchangeService  portssvc.ExchangeSvcFacade
	liquidityService portssvc.LiquidityReaderSvc
	rateService      portssvc.RateSvc
}

func newExchangeHandler(es portssvc.ExchangeSvcFacade, ls portssvc.LiquidityReaderSvc, rs portssvc.RateSvc) *exchangeHandler {
	return &exchangeHandler{
		exchangeService:  es,
		liquidityService: ls,
		rateService:      rs,
	}
}

// RegisterExchangeRoutes registers the public exchange routes.
func RegisterExchangeRoutes(rg *gin.RouterGroup, es portssvc.ExchangeSvcFacade, ls portssvc.LiquidityReaderSvc, rs portssvc.RateSvc) {
	h := newExchangeHandler(es, ls, rs)

	exchange := rg.Group("/exchange")
	{
		exchange.POST("/btc-to-zmw", h.createAssetToFiat)
		exchange.POST("/zmw-to-btc", h.createFiatToAsset)
		exchange.GET("/transactions", h.listTransactions)
		exchange.GET("/transactions/:id", h.getTransaction)
		exchange.GET("/liquidity", h.getLiquidity)
		exchange.POST("/calculate-fees", h.calculateFees)
		exchange.GET("/rate", h.getRate)
	}
}

// createAssetToFiat godoc
// @Summary Start a BTC to ZMW exchange
// @Description Reserves ZMW liquidity and returns a Lightning invoice for the customer to pay
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateAssetToFiatRequest true "Amount and mobile-money recipient"
// @Success 201 {object} dto.CreateAssetToFiatResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Insufficient liquidity"
// @Failure 502 {object} map[string]string "Payment provider unavailable"
// @Router /api/v1/exchange/btc-to-zmw [post]
func (h *exchangeHandler) createAssetToFiat(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAssetToFiatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAssetToFiat", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to exchange BTC to ZMW", slog.String("amount_zmw", req.AmountZMW.String()))

	tx, err := h.exchangeService.CreateAssetToFiat(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, "create exchange", err)
		return
	}

	logger.Info("Exchange created", slog.String("transaction_id", tx.ID))
	c.JSON(http.StatusCreated, dto.ToCreateAssetToFiatResponse(tx))
}

// createFiatToAsset godoc
// @Summary Start a ZMW to BTC exchange
// @Description Reserves BTC liquidity and requests a mobile-money collection from the sender
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateFiatToAssetRequest true "Amount, sender phone and Lightning recipient"
// @Success 201 {object} dto.CreateFiatToAssetResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Insufficient liquidity"
// @Failure 502 {object} map[string]string "Payment provider unavailable"
// @Router /api/v1/exchange/zmw-to-btc [post]
func (h *exchangeHandler) createFiatToAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFiatToAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFiatToAsset", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to exchange ZMW to BTC", slog.String("amount_zmw", req.AmountZMW.String()))

	tx, err := h.exchangeService.CreateFiatToAsset(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, "create exchange", err)
		return
	}

	logger.Info("Exchange created", slog.String("transaction_id", tx.ID))
	c.JSON(http.StatusCreated, dto.ToCreateFiatToAssetResponse(tx))
}

// getTransaction godoc
// @Summary Get an exchange transaction
// @Tags exchange
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Router /api/v1/exchange/transactions/{id} [get]
func (h *exchangeHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	id := c.Param("id")
	logger = logger.With(slog.String("transaction_id", id))

	tx, err := h.exchangeService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, "retrieve transaction", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
}

// listTransactions godoc
// @Summary List exchange transactions
// @Description Newest first, with optional status and direction filters
// @Tags exchange
// @Produce  json
// @Param   limit query int false "Page size (1-100)" default(20)
// @Param   offset query int false "Rows to skip"
// @Param   status query string false "pending, processing, completed, failed or cancelled"
// @Param   direction query string false "asset_to_fiat or fiat_to_asset"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Router /api/v1/exchange/transactions [get]
func (h *exchangeHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	filter := params.ToFilter()
	txs, total, err := h.exchangeService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, "list transactions", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListTransactionsResponse(txs, total, filter))
}

// getLiquidity godoc
// @Summary Liquidity status
// @Description Balance, reserved and available amount of every pool
// @Tags exchange
// @Produce  json
// @Success 200 {object} dto.LiquidityStatusResponse
// @Failure 500 {object} map[string]string "Failed to retrieve liquidity"
// @Router /api/v1/exchange/liquidity [get]
func (h *exchangeHandler) getLiquidity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	pools, err := h.liquidityService.ListPools(c.Request.Context())
	if err != nil {
		respondError(c, logger, "retrieve liquidity", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLiquidityStatusResponse(pools))
}

// calculateFees godoc
// @Summary Preview the price of an exchange
// @Description Computes fee, totals and sats at the current rate without reserving liquidity
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   request body dto.CalculateFeesRequest true "Amount and direction"
// @Success 200 {object} dto.CalculateFeesResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 502 {object} map[string]string "Rate unavailable"
// @Router /api/v1/exchange/calculate-fees [post]
func (h *exchangeHandler) calculateFees(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CalculateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CalculateFees", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	calc, quote, err := h.exchangeService.PreviewFee(c.Request.Context(), req.Direction(), req.AmountZMW)
	if err != nil {
		respondError(c, logger, "calculate fees", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCalculateFeesResponse(calc, quote))
}

// getRate godoc
// @Summary Current BTC/ZMW rate
// @Description The quote used for pricing; stale is true when the upstream feed was unavailable
// @Tags exchange
// @Produce  json
// @Success 200 {object} dto.ExchangeRateResponse
// @Failure 502 {object} map[string]string "Rate unavailable"
// @Router /api/v1/exchange/rate [get]
func (h *exchangeHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	quote, err := h.rateService.CurrentRate(c.Request.Context())
	if err != nil {
		respondError(c, logger, "retrieve exchange rate", err)
		return
	}
	if quote.Stale {
		logger.Warn("Serving stale exchange rate", slog.String("source", quote.Source))
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(quote))
}
