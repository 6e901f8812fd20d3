package accounting

import (
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	satsPerBTC = decimal.NewFromInt(domain.SatsPerBTC)
	hundred    = decimal.NewFromInt(100)
)

// FeeSchedule holds the fee parameters. BasePercentage is expressed in
// percent (1.5 means 1.5%).
type FeeSchedule struct {
	BasePercentage decimal.Decimal
	MinFee         decimal.Decimal
	MaxFee         decimal.Decimal
}

// Validate checks that the schedule can produce a sane fee.
func (f FeeSchedule) Validate() error {
	if f.BasePercentage.IsNegative() {
		return fmt.Errorf("fee percentage must not be negative")
	}
	if f.MinFee.IsNegative() || f.MaxFee.IsNegative() {
		return fmt.Errorf("fee bounds must not be negative")
	}
	if f.MinFee.GreaterThan(f.MaxFee) {
		return fmt.Errorf("minimum fee %s exceeds maximum fee %s", f.MinFee, f.MaxFee)
	}
	return nil
}

// FiatToSats converts a fiat amount to satoshis at rate (fiat per BTC),
// rounding down so the exchange never promises more than it priced.
func FiatToSats(fiat, rate decimal.Decimal) int64 {
	if !rate.IsPositive() || !fiat.IsPositive() {
		return 0
	}
	// QuoRem at precision 0 yields the truncated quotient, which for positive
	// operands is the floor.
	q, _ := fiat.Mul(satsPerBTC).QuoRem(rate, 0)
	return q.IntPart()
}

// SatsToFiat converts satoshis to fiat at rate, unrounded.
func SatsToFiat(sats int64, rate decimal.Decimal) decimal.Decimal {
	return SatsToBTC(sats).Mul(rate)
}

// SatsToBTC expresses sats as a BTC decimal with 8 places.
func SatsToBTC(sats int64) decimal.Decimal {
	return decimal.New(sats, -domain.BTCPrecision)
}

// BTCToSats converts a BTC decimal to whole satoshis, rounding down.
func BTCToSats(btc decimal.Decimal) int64 {
	return btc.Mul(satsPerBTC).Floor().IntPart()
}

// RoundFiat rounds a fiat amount to minor units, half away from zero.
func RoundFiat(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(domain.FiatPrecision)
}

// CalculateFee prices principal at rate under the schedule.
//
// fee = round2(clamp(principal * base%, min, max)); sats amounts are each
// converted from their fiat counterpart and the total in sats is the sum of
// principal and fee sats, never a conversion of the fiat total.
// The caller must reject non-positive principals first.
func CalculateFee(principal, rate decimal.Decimal, schedule FeeSchedule) domain.FeeCalculation {
	fee := principal.Mul(schedule.BasePercentage).Div(hundred)
	if fee.LessThan(schedule.MinFee) {
		fee = schedule.MinFee
	}
	if fee.GreaterThan(schedule.MaxFee) {
		fee = schedule.MaxFee
	}
	fee = RoundFiat(fee)

	amountSats := FiatToSats(principal, rate)
	feeSats := FiatToSats(fee, rate)

	pct := decimal.Zero
	if principal.IsPositive() {
		pct = fee.Div(principal).Mul(hundred).Round(4)
	}

	return domain.FeeCalculation{
		AmountFiat:    principal,
		AmountSats:    amountSats,
		FeeFiat:       fee,
		FeeSats:       feeSats,
		TotalFiat:     principal.Add(fee),
		TotalSats:     amountSats + feeSats,
		FeePercentage: pct,
		ExchangeRate:  rate,
	}
}
