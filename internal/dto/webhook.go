package dto

import (
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// VoltageWebhookRequest is the Lightning provider's invoice notification.
type VoltageWebhookRequest struct {
	Event       string `json:"event" binding:"required"`
	InvoiceID   string `json:"invoice_id" binding:"required"`
	PaymentHash string `json:"payment_hash"`
	// Amount is in satoshis.
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// ToDomainEvent normalizes the notification.
func (r VoltageWebhookRequest) ToDomainEvent() domain.WebhookEvent {
	ev := domain.WebhookEvent{
		Rail:               domain.RailAsset,
		ExternalReference:  r.InvoiceID,
		AlternateReference: r.PaymentHash,
		ConfirmedAmount:    decimal.New(r.Amount, -domain.BTCPrecision),
		Status:             r.Status,
		ConfirmationRef:    r.PaymentHash,
	}
	switch r.Event {
	case "invoice.paid", "invoice.settled":
		ev.EventType = domain.WebhookSucceeded
	case "invoice.expired", "invoice.cancelled", "invoice.failed":
		ev.EventType = domain.WebhookFailed
	default:
		ev.EventType = domain.WebhookIgnored
	}
	return ev
}

// LipilaWebhookRequest is the mobile-money provider's transaction notification.
type LipilaWebhookRequest struct {
	Event         string          `json:"event" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
}

// ToDomainEvent normalizes the notification.
func (r LipilaWebhookRequest) ToDomainEvent() domain.WebhookEvent {
	ev := domain.WebhookEvent{
		Rail:               domain.RailFiat,
		ExternalReference:  r.TransactionID,
		AlternateReference: r.Reference,
		ConfirmedAmount:    r.Amount,
		Status:             r.Status,
		ConfirmationRef:    r.TransactionID,
	}
	switch r.Event {
	case "transaction.completed":
		ev.EventType = domain.WebhookSucceeded
	case "transaction.failed":
		ev.EventType = domain.WebhookFailed
	default:
		ev.EventType = domain.WebhookIgnored
	}
	return ev
}

// WebhookAckResponse is returned to the rail for every accepted notification.
type WebhookAckResponse struct {
	Received bool                 `json:"received"`
	Result   domain.WebhookResult `json:"result"`
}
