package domain

import (
	"fmt"
	"strings"
)

// Currency is one of the two codes the exchange moves between.
type Currency string

const (
	CurrencyBTC Currency = "BTC"
	CurrencyZMW Currency = "ZMW"
)

// SatsPerBTC is the number of base units (satoshis) in one BTC.
const SatsPerBTC int64 = 100_000_000

// FiatPrecision is the number of decimal places ZMW amounts carry.
const FiatPrecision int32 = 2

// BTCPrecision is the number of decimal places BTC pool amounts carry.
const BTCPrecision int32 = 8

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// IsValid reports whether c is BTC or ZMW.
func (c Currency) IsValid() bool {
	return c == CurrencyBTC || c == CurrencyZMW
}

// Precision returns the number of decimals stored for the currency.
func (c Currency) Precision() int32 {
	if c == CurrencyBTC {
		return BTCPrecision
	}
	return FiatPrecision
}
