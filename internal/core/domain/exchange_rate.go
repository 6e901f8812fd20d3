package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a persisted BTC/ZMW observation from an upstream source.
type ExchangeRate struct {
	ID        string          `json:"id"`
	Rate      decimal.Decimal `json:"btcZmwRate"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// RateQuote is the rate handed to pricing, with provenance.
// Stale is set when the upstream could not be reached and an older or
// configured value was substituted.
type RateQuote struct {
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Stale     bool            `json:"stale"`
}

// FeeCalculation is the full price breakdown for a principal at a rate.
type FeeCalculation struct {
	AmountFiat        decimal.Decimal `json:"amountFiat"`
	AmountSats        int64           `json:"amountSats"`
	FeeFiat           decimal.Decimal `json:"feeFiat"`
	FeeSats           int64           `json:"feeSats"`
	TotalFiat         decimal.Decimal `json:"totalFiat"`
	TotalSats         int64           `json:"totalSats"`
	FeePercentage     decimal.Decimal `json:"feePercentage"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
}
