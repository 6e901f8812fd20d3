// Package rails declares the external payment networks the exchange drives.
// Implementations live under internal/rails.
package rails

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InboundInstrument is something the customer pays into, e.g. a Lightning invoice.
type InboundInstrument struct {
	ExternalID     string
	PaymentRequest string
	PaymentHash    string
	ExpiresAt      time.Time
}

// Collection is a mobile-money pull request sent to the payer's phone.
type Collection struct {
	ExternalID string
	Reference  string
}

// OutboundReceipt identifies a payout or payment the exchange initiated.
type OutboundReceipt struct {
	ExternalID string
}

// AssetRail is the Lightning side.
type AssetRail interface {
	CreateInboundInstrument(ctx context.Context, amountSats int64, memo string) (*InboundInstrument, error)
	PayOutboundInstrument(ctx context.Context, destination domain.Party, amountSats int64) (*OutboundReceipt, error)
}

// InboundState is what the asset rail currently reports for an inbound instrument.
type InboundState string

const (
	InboundOpen     InboundState = "open"
	InboundSettled  InboundState = "settled"
	InboundCanceled InboundState = "canceled"
)

// InboundStatus is the result of looking an inbound instrument up.
type InboundStatus struct {
	State      InboundState
	AmountSats int64
}

// InboundLookup is implemented by asset rails that can report an invoice's
// state on demand, used before abandoning a transaction whose settlement
// may have been missed.
type InboundLookup interface {
	LookupInboundInstrument(ctx context.Context, externalID string) (*InboundStatus, error)
}

// FiatRail is the mobile-money side.
type FiatRail interface {
	InitiateCollection(ctx context.Context, amount decimal.Decimal, payer domain.Party, reference string) (*Collection, error)
	InitiatePayout(ctx context.Context, amount decimal.Decimal, payee domain.Party, reference string) (*OutboundReceipt, error)
}

// Error is returned by rail adapters. It matches apperrors.ErrRail via errors.Is.
type Error struct {
	Rail      string
	Operation string
	// StatusCode is the upstream HTTP status, or 0 for transport failures.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Rail, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Rail, e.Operation, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{apperrors.ErrRail, e.Err}
}

// NewError wraps err as a rail failure.
func NewError(rail, operation string, statusCode int, err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Error{Rail: rail, Operation: operation, StatusCode: statusCode, Err: err}
}
