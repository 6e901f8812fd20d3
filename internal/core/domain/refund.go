package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus tracks an operator work item.
type RefundStatus string

const (
	RefundOpen     RefundStatus = "open"
	RefundResolved RefundStatus = "resolved"
)

// ManualRefund is queued whenever a customer's inbound payment was collected
// but the exchange could not deliver the outbound leg.
type ManualRefund struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transactionId"`
	Currency       Currency        `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	Party          Party           `json:"-"`
	Reason         string          `json:"reason"`
	Status         RefundStatus    `json:"status"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedBy     string          `json:"resolvedBy,omitempty"`
	ResolutionNote string          `json:"resolutionNote,omitempty"`
	Timestamps
}
