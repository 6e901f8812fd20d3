package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityPool is the liquidity_pools row for one currency.
type LiquidityPool struct {
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
	Reserved  decimal.Decimal `db:"reserved"`
	UpdatedAt time.Time       `db:"updated_at"`
}
