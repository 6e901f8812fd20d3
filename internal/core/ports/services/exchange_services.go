package services

import (
	"context"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/shopspring/decimal"
)

// FeeSvc prices a principal. It performs no I/O.
type FeeSvc interface {
	// ComputeFee validates principal and returns the fee breakdown at rate.
	ComputeFee(principal, rate decimal.Decimal) (*domain.FeeCalculation, error)
}

// RateSvc supplies the BTC/ZMW rate used for pricing.
type RateSvc interface {
	// CurrentRate returns a quote no older than the freshness window, or a
	// fallback quote flagged Stale when the upstream is unavailable.
	CurrentRate(ctx context.Context) (*domain.RateQuote, error)
}

// ExchangeCreatorSvc starts new exchanges.
type ExchangeCreatorSvc interface {
	CreateAssetToFiat(ctx context.Context, req dto.CreateAssetToFiatRequest) (*domain.Transaction, error)
	CreateFiatToAsset(ctx context.Context, req dto.CreateFiatToAssetRequest) (*domain.Transaction, error)
}

// ExchangeReaderSvc exposes the query surface.
type ExchangeReaderSvc interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error)
	// PreviewFee prices an exchange at the current rate without reserving anything.
	PreviewFee(ctx context.Context, direction domain.Direction, principal decimal.Decimal) (*domain.FeeCalculation, *domain.RateQuote, error)
}

// ExchangeOperatorSvc holds operator-only actions on transactions.
type ExchangeOperatorSvc interface {
	// CancelTransaction cancels a pending transaction and releases its reservation.
	CancelTransaction(ctx context.Context, id, operatorID, reason string) (*domain.Transaction, error)
}

// WebhookProcessorSvc advances transactions from rail notifications.
type WebhookProcessorSvc interface {
	// ProcessWebhook never returns an error: every outcome is described by the
	// result so the caller can acknowledge the rail unconditionally.
	ProcessWebhook(ctx context.Context, event domain.WebhookEvent) domain.WebhookResult
}

// ExchangeSvcFacade combines all exchange-related service interfaces.
type ExchangeSvcFacade interface {
	ExchangeCreatorSvc
	ExchangeReaderSvc
	ExchangeOperatorSvc
	WebhookProcessorSvc
}
