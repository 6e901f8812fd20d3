// Package gateways declares non-rail outbound dependencies of the core:
// the upstream price feed, the shared quote cache and the event bus.
package gateways

import (
	"context"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateSource fetches the current BTC price in ZMW from an upstream feed.
type RateSource interface {
	FetchRate(ctx context.Context) (decimal.Decimal, error)
	Name() string
}

// RateCache shares recent quotes between replicas.
// Get returns (nil, nil) on a miss.
type RateCache interface {
	Get(ctx context.Context) (*domain.RateQuote, error)
	Set(ctx context.Context, quote domain.RateQuote, ttl time.Duration) error
}

// EventType names a lifecycle event on the bus.
type EventType string

const (
	EventTransactionCreated   EventType = "transaction.created"
	EventTransactionCompleted EventType = "transaction.completed"
	EventTransactionFailed    EventType = "transaction.failed"
	EventTransactionCancelled EventType = "transaction.cancelled"
	EventRefundRequested      EventType = "refund.requested"
)

// Event is the published payload. Key orders events for one transaction.
type Event struct {
	Type          EventType                `json:"type"`
	TransactionID string                   `json:"transactionId"`
	Direction     domain.Direction         `json:"direction,omitempty"`
	Status        domain.TransactionStatus `json:"status,omitempty"`
	Amount        decimal.Decimal          `json:"amount"`
	Currency      domain.Currency          `json:"currency,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

// EventPublisher emits lifecycle events. Publishing is best effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
