package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one persisted BTC/ZMW observation.
type ExchangeRate struct {
	ID        string          `db:"id"`
	Rate      decimal.Decimal `db:"rate"`
	Source    string          `db:"source"`
	FetchedAt time.Time       `db:"fetched_at"`
}
