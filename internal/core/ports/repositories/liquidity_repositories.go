package repositories

import (
	"context"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LiquidityReader defines read operations for liquidity pools.
type LiquidityReader interface {
	// FindPool returns the pool for currency, or ErrNotFound.
	FindPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error)
	ListPools(ctx context.Context) ([]domain.LiquidityPool, error)
}

// LiquidityWriter defines the only mutations allowed on pools. Each is a
// single conditional statement so concurrent callers cannot over-commit.
type LiquidityWriter interface {
	// Reserve moves amount from available to reserved if and only if
	// available >= amount. Returns ErrInsufficientLiquidity otherwise,
	// or ErrDataIntegrity if the pool row is missing.
	Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
	// Release returns amount from reserved to available, clamping at zero.
	// clamped reports whether less than amount was actually reserved.
	Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (clamped bool, err error)
	// Consume removes a settled reservation from both balance and reserved.
	// Returns ErrDataIntegrity if reserved or balance is below amount.
	Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
	// Add increases balance.
	Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
}

// LiquidityRepositoryFacade combines all liquidity repository interfaces.
type LiquidityRepositoryFacade interface {
	LiquidityReader
	LiquidityWriter
}
