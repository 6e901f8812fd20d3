package utils

import (
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatWithCurrencyPrecision formats an amount with the precision of its currency.
// Example: 12.3456 ZMW returns "12.35"; 0.000123456 BTC returns "0.00012346".
func FormatWithCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) string {
	return amount.Round(currency.Precision()).String()
}
