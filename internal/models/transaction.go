package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the exchange_transactions row. Optional rail identifiers
// are nullable so the partial unique indexes ignore unset values.
type Transaction struct {
	ID            string          `db:"id"`
	Direction     string          `db:"direction"`
	Status        string          `db:"status"`
	AmountFiat    decimal.Decimal `db:"amount_fiat"`
	AmountSats    int64           `db:"amount_sats"`
	FeeFiat       decimal.Decimal `db:"fee_fiat"`
	FeeSats       int64           `db:"fee_sats"`
	TotalFiat     decimal.Decimal `db:"total_fiat"`
	TotalSats     int64           `db:"total_sats"`
	FeePercentage decimal.Decimal `db:"fee_percentage"`
	ExchangeRate  decimal.Decimal `db:"exchange_rate"`
	RateStale     bool            `db:"rate_stale"`
	Sender        []byte          `db:"sender"`    // JSONB party envelope
	Recipient     []byte          `db:"recipient"` // JSONB party envelope

	AssetInvoiceID   *string    `db:"asset_invoice_id"`
	PaymentRequest   *string    `db:"payment_request"`
	PaymentHash      *string    `db:"payment_hash"`
	InvoiceExpiresAt *time.Time `db:"invoice_expires_at"`

	FiatCollectionID        *string `db:"fiat_collection_id"`
	FiatCollectionReference *string `db:"fiat_collection_reference"`

	InboundConfirmationRef *string    `db:"inbound_confirmation_ref"`
	OutboundRef            *string    `db:"outbound_ref"`
	FailureLeg             *string    `db:"failure_leg"`
	FailureReason          *string    `db:"failure_reason"`
	CompletedAt            *time.Time `db:"completed_at"`
	Timestamps
}
