package domain_test

import (
	"testing"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	all := []domain.TransactionStatus{
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
		domain.StatusCancelled,
	}
	allowed := map[domain.TransactionStatus]map[domain.TransactionStatus]bool{
		domain.StatusPending: {
			domain.StatusProcessing: true,
			domain.StatusFailed:     true,
			domain.StatusCancelled:  true,
		},
		domain.StatusProcessing: {
			domain.StatusCompleted: true,
			domain.StatusFailed:    true,
			domain.StatusCancelled: true,
		},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTransactionStatus_TerminalStatesAreFinal(t *testing.T) {
	for _, s := range []domain.TransactionStatus{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled} {
		assert.True(t, s.IsTerminal())
		for _, next := range []domain.TransactionStatus{domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled} {
			assert.False(t, s.CanTransitionTo(next))
		}
	}
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusProcessing.IsTerminal())
}

func TestSourcesFor(t *testing.T) {
	assert.Equal(t, []domain.TransactionStatus{domain.StatusPending}, domain.SourcesFor(domain.StatusProcessing))
	assert.Equal(t, []domain.TransactionStatus{domain.StatusProcessing}, domain.SourcesFor(domain.StatusCompleted))
	assert.Equal(t, []domain.TransactionStatus{domain.StatusPending, domain.StatusProcessing}, domain.SourcesFor(domain.StatusFailed))
	assert.Empty(t, domain.SourcesFor(domain.StatusPending))
}

func TestTransaction_LegAmounts(t *testing.T) {
	tests := []struct {
		name         string
		tx           domain.Transaction
		wantReserved string
		wantInbound  string
		wantRef      string
	}{
		{
			name: "asset to fiat reserves fiat principal",
			tx: domain.Transaction{
				Direction:      domain.DirectionAssetToFiat,
				AmountFiat:     decimal.RequireFromString("100"),
				TotalSats:      7000,
				AssetInvoiceID: "inv-1",
			},
			wantReserved: "100",
			wantInbound:  "0.00007",
			wantRef:      "inv-1",
		},
		{
			name: "fiat to asset reserves btc principal",
			tx: domain.Transaction{
				Direction:        domain.DirectionFiatToAsset,
				AmountSats:       6666,
				TotalFiat:        decimal.RequireFromString("105"),
				FiatCollectionID: "col-1",
			},
			wantReserved: "0.00006666",
			wantInbound:  "105",
			wantRef:      "col-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.wantReserved).Equal(tt.tx.ReservedAmount()))
			assert.True(t, decimal.RequireFromString(tt.wantInbound).Equal(tt.tx.InboundTotal()))
			assert.Equal(t, tt.wantRef, tt.tx.InboundReference())
		})
	}
}

func TestDirection_Currencies(t *testing.T) {
	assert.Equal(t, domain.CurrencyZMW, domain.DirectionAssetToFiat.ReservedCurrency())
	assert.Equal(t, domain.CurrencyBTC, domain.DirectionAssetToFiat.InboundCurrency())
	assert.Equal(t, domain.CurrencyBTC, domain.DirectionFiatToAsset.ReservedCurrency())
	assert.Equal(t, domain.CurrencyZMW, domain.DirectionFiatToAsset.InboundCurrency())
	assert.Equal(t, "ZMW-BTC-abc", domain.DirectionFiatToAsset.PaymentReference("abc"))
	assert.Equal(t, "BTC-ZMW-abc", domain.DirectionAssetToFiat.PaymentReference("abc"))
}

func TestLiquidityPool_Available(t *testing.T) {
	p := domain.LiquidityPool{
		Currency: domain.CurrencyZMW,
		Balance:  decimal.RequireFromString("1000"),
		Reserved: decimal.RequireFromString("250.50"),
	}
	assert.True(t, decimal.RequireFromString("749.50").Equal(p.Available()))
	assert.True(t, p.Covers(decimal.RequireFromString("749.50")))
	assert.False(t, p.Covers(decimal.RequireFromString("749.51")))
}
