package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/gin-gonic/gin"
)

// WebhookSecrets are the per-rail HMAC secrets. Empty disables verification.
type WebhookSecrets struct {
	Voltage string
	Lipila  string
}

type webhookHandler struct {
	processor portssvc.WebhookProcessorSvc
}

// RegisterWebhookRoutes registers the rail callbacks. Once a payload parses,
// the rail always gets a 200 with the processing result so it stops retrying.
func RegisterWebhookRoutes(rg *gin.RouterGroup, processor portssvc.WebhookProcessorSvc, secrets WebhookSecrets) {
	h := &webhookHandler{processor: processor}

	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/voltage", middleware.WebhookSignature("voltage", secrets.Voltage), h.voltage)
		webhooks.POST("/lipila", middleware.WebhookSignature("lipila", secrets.Lipila), h.lipila)
	}
}

// voltage godoc
// @Summary Lightning invoice notification
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   X-Signature header string false "hex HMAC-SHA256 of the body"
// @Param   payload body dto.VoltageWebhookRequest true "Invoice event"
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 401 {object} map[string]string "Invalid signature"
// @Router /webhooks/voltage [post]
func (h *webhookHandler) voltage(c *gin.Context) {
	var req dto.VoltageWebhookRequest
	if !bindWebhook(c, "voltage", &req) {
		return
	}
	h.process(c, "voltage", req.Event, req.ToDomainEvent())
}

// lipila godoc
// @Summary Mobile-money transaction notification
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   X-Signature header string false "hex HMAC-SHA256 of the body"
// @Param   payload body dto.LipilaWebhookRequest true "Transaction event"
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 401 {object} map[string]string "Invalid signature"
// @Router /webhooks/lipila [post]
func (h *webhookHandler) lipila(c *gin.Context) {
	var req dto.LipilaWebhookRequest
	if !bindWebhook(c, "lipila", &req) {
		return
	}
	h.process(c, "lipila", req.Event, req.ToDomainEvent())
}

func bindWebhook(c *gin.Context, rail string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Malformed webhook payload",
			slog.String("rail", rail), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload: " + err.Error()})
		return false
	}
	return true
}

func (h *webhookHandler) process(c *gin.Context, rail, rawEvent string, event domain.WebhookEvent) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
		slog.String("rail", rail),
		slog.String("event", rawEvent),
		slog.String("external_reference", event.ExternalReference))
	logger.Info("Webhook received")

	result := h.processor.ProcessWebhook(middleware.WithLogger(c.Request.Context(), logger), event)

	logger.Info("Webhook processed",
		slog.String("outcome", string(result.Outcome)),
		slog.String("transaction_id", result.TransactionID),
		slog.String("reason", result.Reason))
	c.JSON(http.StatusOK, dto.WebhookAckResponse{Received: true, Result: result})
}
