package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManualRefund is the manual_refunds row.
type ManualRefund struct {
	ID             string          `db:"id"`
	TransactionID  string          `db:"transaction_id"`
	Currency       string          `db:"currency"`
	Amount         decimal.Decimal `db:"amount"`
	Party          []byte          `db:"party"`
	Reason         string          `db:"reason"`
	Status         string          `db:"status"`
	ResolvedAt     *time.Time      `db:"resolved_at"`
	ResolvedBy     *string         `db:"resolved_by"`
	ResolutionNote *string         `db:"resolution_note"`
	Timestamps
}
