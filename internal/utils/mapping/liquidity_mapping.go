package mapping

import (
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
)

// ToDomainLiquidityPool converts a pool row to its domain form.
func ToDomainLiquidityPool(m models.LiquidityPool) domain.LiquidityPool {
	return domain.LiquidityPool{
		Currency:  domain.Currency(m.Currency),
		Balance:   m.Balance,
		Reserved:  m.Reserved,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// ToDomainLiquidityPools converts a slice of pool rows.
func ToDomainLiquidityPools(ms []models.LiquidityPool) []domain.LiquidityPool {
	out := make([]domain.LiquidityPool, len(ms))
	for i, m := range ms {
		out[i] = ToDomainLiquidityPool(m)
	}
	return out
}
