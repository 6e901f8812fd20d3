package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto a status code. action is used in the
// log line and in the generic message of unexpected errors.
func respondError(c *gin.Context, logger *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Not found: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientLiquidity):
		logger.Warn("Insufficient liquidity: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient liquidity"})
	case errors.Is(err, apperrors.ErrInvalidTransition), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflict: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrRail):
		logger.Error("Payment rail error: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
