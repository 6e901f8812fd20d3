package services

import (
	"context"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LiquidityReaderSvc defines read operations on pools.
type LiquidityReaderSvc interface {
	CheckAvailability(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error)
	GetPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error)
	ListPools(ctx context.Context) ([]domain.LiquidityPool, error)
}

// LiquidityWriterSvc defines the ledger mutations.
type LiquidityWriterSvc interface {
	Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
	Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
	Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
	AddLiquidity(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
}

// LiquiditySvcFacade combines all liquidity service interfaces.
type LiquiditySvcFacade interface {
	LiquidityReaderSvc
	LiquidityWriterSvc
}

// RefundSvc manages the manual refund queue.
type RefundSvc interface {
	ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error)
	ResolveRefund(ctx context.Context, id, operatorID, note string) (*domain.ManualRefund, error)
}

// ReconciliationSvc cleans up transactions whose inbound leg never arrived.
type ReconciliationSvc interface {
	// SweepStalePending cancels expired pending transactions and returns how many it cancelled.
	SweepStalePending(ctx context.Context) (int, error)
	// Run sweeps on every tick until ctx is done.
	Run(ctx context.Context)
}
