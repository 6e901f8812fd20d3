package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is which way value flows through the exchange.
type Direction string

const (
	// DirectionAssetToFiat: customer pays a Lightning invoice, receives ZMW via mobile money.
	DirectionAssetToFiat Direction = "asset_to_fiat"
	// DirectionFiatToAsset: customer pays ZMW via mobile money, receives a Lightning payment.
	DirectionFiatToAsset Direction = "fiat_to_asset"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionAssetToFiat || d == DirectionFiatToAsset
}

// ReservedCurrency is the pool the exchange pays out of for this direction.
func (d Direction) ReservedCurrency() Currency {
	if d == DirectionAssetToFiat {
		return CurrencyZMW
	}
	return CurrencyBTC
}

// InboundCurrency is the pool that grows when the customer's payment settles.
func (d Direction) InboundCurrency() Currency {
	if d == DirectionAssetToFiat {
		return CurrencyBTC
	}
	return CurrencyZMW
}

// EstimatedDelivery is the customer-facing delivery estimate for the direction.
func (d Direction) EstimatedDelivery() string {
	if d == DirectionAssetToFiat {
		return "Funds arrive within 5-10 minutes after Lightning payment"
	}
	return "Bitcoin sent instantly after mobile money confirmation"
}

// PaymentReference is the reference string sent to the mobile-money rail.
func (d Direction) PaymentReference(transactionID string) string {
	if d == DirectionAssetToFiat {
		return "BTC-ZMW-" + transactionID
	}
	return "ZMW-BTC-" + transactionID
}

// TransactionStatus is a state in the transaction lifecycle.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
)

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may legally move to next.
func SourcesFor(next TransactionStatus) []TransactionStatus {
	var from []TransactionStatus
	for _, s := range []TransactionStatus{StatusPending, StatusProcessing} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

// FailureLeg records which step a failed or cancelled transaction stopped at.
type FailureLeg string

const (
	FailureLegNone           FailureLeg = ""
	FailureLegInbound        FailureLeg = "inbound"
	FailureLegOutbound       FailureLeg = "outbound"
	FailureLegOperator       FailureLeg = "operator"
	FailureLegReconciliation FailureLeg = "reconciliation"
)

// Transaction is one exchange request and its progress through both rails.
// Amounts, fees and the rate are fixed at creation.
type Transaction struct {
	ID            string            `json:"id"`
	Direction     Direction         `json:"direction"`
	Status        TransactionStatus `json:"status"`
	AmountFiat    decimal.Decimal   `json:"amountFiat"`
	AmountSats    int64             `json:"amountSats"`
	FeeFiat       decimal.Decimal   `json:"feeFiat"`
	FeeSats       int64             `json:"feeSats"`
	TotalFiat     decimal.Decimal   `json:"totalFiat"`
	TotalSats     int64             `json:"totalSats"`
	FeePercentage decimal.Decimal   `json:"feePercentage"`
	ExchangeRate  decimal.Decimal   `json:"exchangeRate"`
	RateStale     bool              `json:"rateStale"`
	Sender        Party             `json:"-"`
	Recipient     Party             `json:"-"`

	// Inbound leg, asset_to_fiat.
	AssetInvoiceID   string     `json:"assetInvoiceId,omitempty"`
	PaymentRequest   string     `json:"paymentRequest,omitempty"`
	PaymentHash      string     `json:"paymentHash,omitempty"`
	InvoiceExpiresAt *time.Time `json:"invoiceExpiresAt,omitempty"`

	// Inbound leg, fiat_to_asset.
	FiatCollectionID        string `json:"fiatCollectionId,omitempty"`
	FiatCollectionReference string `json:"fiatCollectionReference,omitempty"`

	InboundConfirmationRef string     `json:"inboundConfirmationRef,omitempty"`
	OutboundRef            string     `json:"outboundRef,omitempty"`
	FailureLeg             FailureLeg `json:"failureLeg,omitempty"`
	FailureReason          string     `json:"failureReason,omitempty"`
	CompletedAt            *time.Time `json:"completedAt,omitempty"`
	Timestamps
}

// ReservedAmount is what the transaction holds in its reserved pool, in that
// pool's units (ZMW, or BTC for the principal sats).
func (t *Transaction) ReservedAmount() decimal.Decimal {
	if t.Direction == DirectionAssetToFiat {
		return t.AmountFiat
	}
	return decimal.New(t.AmountSats, -BTCPrecision)
}

// InboundTotal is what the customer pays on the inbound leg, in that leg's pool units.
func (t *Transaction) InboundTotal() decimal.Decimal {
	if t.Direction == DirectionAssetToFiat {
		return decimal.New(t.TotalSats, -BTCPrecision)
	}
	return t.TotalFiat
}

// InboundReference is the rail identifier webhooks will quote back for the inbound leg.
func (t *Transaction) InboundReference() string {
	if t.Direction == DirectionAssetToFiat {
		return t.AssetInvoiceID
	}
	return t.FiatCollectionID
}

// Payee is who receives the outbound leg, or who gets refunded if it fails.
func (t *Transaction) Payee() Party {
	return t.Recipient
}

// Payer is who paid the inbound leg.
func (t *Transaction) Payer() Party {
	return t.Sender
}

// ListTransactionsFilter narrows a transaction listing.
type ListTransactionsFilter struct {
	Status    *TransactionStatus
	Direction *Direction
	Limit     int
	Offset    int
}

// StatusUpdate describes a guarded transition and the fields it records.
type StatusUpdate struct {
	From                   []TransactionStatus
	To                     TransactionStatus
	InboundConfirmationRef *string
	OutboundRef            *string
	FailureLeg             *FailureLeg
	FailureReason          *string
	CompletedAt            *time.Time
	UpdatedAt              time.Time
}
