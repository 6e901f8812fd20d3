package domain

import "github.com/shopspring/decimal"

// Rail names an external payment network.
type Rail string

const (
	RailAsset Rail = "asset"
	RailFiat  Rail = "fiat"
)

// WebhookEventType is the normalized meaning of a rail notification.
type WebhookEventType string

const (
	WebhookSucceeded WebhookEventType = "succeeded"
	WebhookFailed    WebhookEventType = "failed"
	// WebhookIgnored covers rail events that carry no state change for us.
	WebhookIgnored WebhookEventType = "ignored"
)

// WebhookEvent is a rail notification reduced to what the coordinator needs.
type WebhookEvent struct {
	Rail              Rail
	EventType         WebhookEventType
	ExternalReference string
	// AlternateReference is a second identifier the rail sends (payment hash,
	// merchant reference), used when ExternalReference does not match.
	AlternateReference string
	ConfirmedAmount    decimal.Decimal
	Status             string
	ConfirmationRef    string
}

// WebhookOutcome classifies what processing a webhook did.
type WebhookOutcome string

const (
	WebhookApplied  WebhookOutcome = "applied"
	WebhookNoOp     WebhookOutcome = "noop"
	WebhookRejected WebhookOutcome = "rejected"
)

// WebhookResult is returned to the rail and logged for audit.
type WebhookResult struct {
	Outcome       WebhookOutcome    `json:"outcome"`
	TransactionID string            `json:"transactionId,omitempty"`
	Status        TransactionStatus `json:"status,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// Applied builds a result for a webhook that changed state.
func Applied(txID string, status TransactionStatus) WebhookResult {
	return WebhookResult{Outcome: WebhookApplied, TransactionID: txID, Status: status}
}

// NoOp builds a result for a duplicate, late or unmatched webhook.
func NoOp(txID string, reason string) WebhookResult {
	return WebhookResult{Outcome: WebhookNoOp, TransactionID: txID, Reason: reason}
}

// Rejected builds a result for a webhook that could not be processed.
func Rejected(txID string, reason string) WebhookResult {
	return WebhookResult{Outcome: WebhookRejected, TransactionID: txID, Reason: reason}
}
