// Package coingecko reads the BTC/ZMW price from the CoinGecko simple-price API.
package coingecko

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/shopspring/decimal"
)

// SourceName is recorded on every rate this source produces.
const SourceName = "coingecko"

const pricePath = "/simple/price?ids=bitcoin&vs_currencies=zmw"

type priceResponse map[string]map[string]decimal.Decimal

// Source implements gateways.RateSource.
type Source struct {
	client *railhttp.Client
}

var _ gateways.RateSource = (*Source)(nil)

// NewSource returns a source calling through client.
func NewSource(client *railhttp.Client) *Source {
	return &Source{client: client}
}

func (s *Source) Name() string { return SourceName }

// FetchRate returns the price of one BTC in ZMW.
func (s *Source) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	var resp priceResponse
	if err := s.client.Do(ctx, "simple_price", http.MethodGet, pricePath, nil, &resp); err != nil {
		return decimal.Zero, err
	}
	rate, ok := resp["bitcoin"]["zmw"]
	if !ok {
		return decimal.Zero, rails.NewError(SourceName, "simple_price", 0, fmt.Errorf("response has no bitcoin/zmw price"))
	}
	if !rate.IsPositive() {
		return decimal.Zero, rails.NewError(SourceName, "simple_price", 0, fmt.Errorf("non-positive price %s", rate))
	}
	return rate, nil
}
