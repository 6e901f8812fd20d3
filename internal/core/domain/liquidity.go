package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityPool is the treasury position for one currency.
// Invariant: 0 <= Reserved <= Balance.
type LiquidityPool struct {
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Reserved  decimal.Decimal `json:"reserved"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Available is the part of the balance not promised to an in-flight transaction.
func (p LiquidityPool) Available() decimal.Decimal {
	return p.Balance.Sub(p.Reserved)
}

// Covers reports whether amount can be reserved from the pool right now.
func (p LiquidityPool) Covers(amount decimal.Decimal) bool {
	return p.Available().GreaterThanOrEqual(amount)
}
