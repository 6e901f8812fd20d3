package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PartyInfo is the wire form of a party; exactly one field is expected.
type PartyInfo struct {
	Phone            string `json:"phone,omitempty" binding:"omitempty,zmphone"`
	LightningAddress string `json:"lightning_address,omitempty"`
	LightningInvoice string `json:"lightning_invoice,omitempty"`
}

// ToDomain picks the party variant from whichever field is set.
// It returns nil when no field is set.
func (p PartyInfo) ToDomain() domain.Party {
	switch {
	case strings.TrimSpace(p.Phone) != "":
		return domain.MobileMoneyParty{Phone: strings.TrimSpace(p.Phone)}
	case strings.TrimSpace(p.LightningAddress) != "":
		return domain.LightningAddressParty{Address: strings.TrimSpace(p.LightningAddress)}
	case strings.TrimSpace(p.LightningInvoice) != "":
		return domain.LightningInvoiceParty{Invoice: strings.TrimSpace(p.LightningInvoice)}
	}
	return nil
}

// FromDomainParty renders a party back to its wire form.
func FromDomainParty(p domain.Party) *PartyInfo {
	switch v := p.(type) {
	case domain.MobileMoneyParty:
		return &PartyInfo{Phone: v.Phone}
	case domain.LightningAddressParty:
		return &PartyInfo{LightningAddress: v.Address}
	case domain.LightningInvoiceParty:
		return &PartyInfo{LightningInvoice: v.Invoice}
	}
	return nil
}

// CreateAssetToFiatRequest starts a BTC -> ZMW exchange.
type CreateAssetToFiatRequest struct {
	AmountZMW     decimal.Decimal `json:"amount_zmw" binding:"required"`
	RecipientInfo PartyInfo       `json:"recipient_info" binding:"required"`
}

// CreateAssetToFiatResponse tells the customer which invoice to pay.
type CreateAssetToFiatResponse struct {
	TransactionID    string          `json:"transaction_id"`
	LightningInvoice string          `json:"lightning_invoice"`
	AmountSats       int64           `json:"amount_sats"`
	TotalSats        int64           `json:"total_sats"`
	FeeZMW           decimal.Decimal `json:"fee_zmw"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	RateStale        bool            `json:"rate_stale"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
}

// ToCreateAssetToFiatResponse builds the response for a new BTC -> ZMW exchange.
func ToCreateAssetToFiatResponse(t *domain.Transaction) CreateAssetToFiatResponse {
	return CreateAssetToFiatResponse{
		TransactionID:    t.ID,
		LightningInvoice: t.PaymentRequest,
		AmountSats:       t.AmountSats,
		TotalSats:        t.TotalSats,
		FeeZMW:           t.FeeFiat,
		ExchangeRate:     t.ExchangeRate,
		RateStale:        t.RateStale,
		ExpiresAt:        t.InvoiceExpiresAt,
	}
}

// CreateFiatToAssetRequest starts a ZMW -> BTC exchange.
type CreateFiatToAssetRequest struct {
	AmountZMW     decimal.Decimal `json:"amount_zmw" binding:"required"`
	SenderPhone   string          `json:"sender_phone" binding:"required,zmphone"`
	RecipientInfo PartyInfo       `json:"recipient_info" binding:"required"`
}

// CreateFiatToAssetResponse tells the customer to approve the mobile-money prompt.
type CreateFiatToAssetResponse struct {
	TransactionID       string          `json:"transaction_id"`
	AmountSats          int64           `json:"amount_sats"`
	TotalZMW            decimal.Decimal `json:"total_zmw"`
	FeeZMW              decimal.Decimal `json:"fee_zmw"`
	ExchangeRate        decimal.Decimal `json:"exchange_rate"`
	RateStale           bool            `json:"rate_stale"`
	CollectionReference string          `json:"collection_reference"`
}

// ToCreateFiatToAssetResponse builds the response for a new ZMW -> BTC exchange.
func ToCreateFiatToAssetResponse(t *domain.Transaction) CreateFiatToAssetResponse {
	return CreateFiatToAssetResponse{
		TransactionID:       t.ID,
		AmountSats:          t.AmountSats,
		TotalZMW:            t.TotalFiat,
		FeeZMW:              t.FeeFiat,
		ExchangeRate:        t.ExchangeRate,
		RateStale:           t.RateStale,
		CollectionReference: t.FiatCollectionReference,
	}
}

// CalculateFeesRequest asks for a price breakdown without creating anything.
type CalculateFeesRequest struct {
	AmountZMW       decimal.Decimal `json:"amount_zmw" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=btc_to_zmw zmw_to_btc asset_to_fiat fiat_to_asset"`
}

// Direction maps the accepted transaction_type spellings onto a direction.
func (r CalculateFeesRequest) Direction() domain.Direction {
	switch r.TransactionType {
	case "btc_to_zmw", string(domain.DirectionAssetToFiat):
		return domain.DirectionAssetToFiat
	case "zmw_to_btc", string(domain.DirectionFiatToAsset):
		return domain.DirectionFiatToAsset
	}
	return ""
}

// CalculateFeesResponse is the full price breakdown.
type CalculateFeesResponse struct {
	AmountZMW             decimal.Decimal `json:"amount_zmw"`
	AmountSats            int64           `json:"amount_sats"`
	FeeZMW                decimal.Decimal `json:"fee_zmw"`
	FeeSats               int64           `json:"fee_sats"`
	TotalZMW              decimal.Decimal `json:"total_zmw"`
	TotalSats             int64           `json:"total_sats"`
	FeePercentage         decimal.Decimal `json:"fee_percentage"`
	ExchangeRate          decimal.Decimal `json:"exchange_rate"`
	RateStale             bool            `json:"rate_stale"`
	EstimatedDeliveryTime string          `json:"estimated_delivery_time"`
}

// ToCalculateFeesResponse converts a fee calculation and quote to the response DTO.
func ToCalculateFeesResponse(calc *domain.FeeCalculation, quote *domain.RateQuote) CalculateFeesResponse {
	return CalculateFeesResponse{
		AmountZMW:             calc.AmountFiat,
		AmountSats:            calc.AmountSats,
		FeeZMW:                calc.FeeFiat,
		FeeSats:               calc.FeeSats,
		TotalZMW:              calc.TotalFiat,
		TotalSats:             calc.TotalSats,
		FeePercentage:         calc.FeePercentage,
		ExchangeRate:          calc.ExchangeRate,
		RateStale:             quote != nil && quote.Stale,
		EstimatedDeliveryTime: calc.EstimatedDelivery,
	}
}

// ExchangeRateResponse is the current BTC/ZMW quote.
type ExchangeRateResponse struct {
	BTCZMWRate decimal.Decimal `json:"btc_zmw_rate"`
	Source     string          `json:"source"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Stale      bool            `json:"stale"`
}

// ToExchangeRateResponse converts a rate quote to the response DTO.
func ToExchangeRateResponse(q *domain.RateQuote) ExchangeRateResponse {
	return ExchangeRateResponse{BTCZMWRate: q.Rate, Source: q.Source, FetchedAt: q.FetchedAt, Stale: q.Stale}
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID                     string          `json:"id"`
	Type                   string          `json:"type"`
	Status                 string          `json:"status"`
	AmountZMW              decimal.Decimal `json:"amount_zmw"`
	AmountSats             int64           `json:"amount_sats"`
	FeeZMW                 decimal.Decimal `json:"fee_zmw"`
	FeeSats                int64           `json:"fee_sats"`
	TotalZMW               decimal.Decimal `json:"total_zmw"`
	TotalSats              int64           `json:"total_sats"`
	FeePercentage          decimal.Decimal `json:"fee_percentage"`
	ExchangeRate           decimal.Decimal `json:"exchange_rate"`
	RateStale              bool            `json:"rate_stale"`
	SenderInfo             *PartyInfo      `json:"sender_info,omitempty"`
	RecipientInfo          *PartyInfo      `json:"recipient_info,omitempty"`
	LightningInvoice       string          `json:"lightning_invoice,omitempty"`
	LightningPaymentHash   string          `json:"lightning_payment_hash,omitempty"`
	CollectionReference    string          `json:"collection_reference,omitempty"`
	InboundConfirmationRef string          `json:"inbound_confirmation_ref,omitempty"`
	OutboundRef            string          `json:"outbound_ref,omitempty"`
	FailureLeg             string          `json:"failure_leg,omitempty"`
	FailureReason          string          `json:"failure_reason,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	CompletedAt            *time.Time      `json:"completed_at,omitempty"`
}

// ToTransactionResponse converts a domain transaction to its public view.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                     t.ID,
		Type:                   string(t.Direction),
		Status:                 string(t.Status),
		AmountZMW:              t.AmountFiat,
		AmountSats:             t.AmountSats,
		FeeZMW:                 t.FeeFiat,
		FeeSats:                t.FeeSats,
		TotalZMW:               t.TotalFiat,
		TotalSats:              t.TotalSats,
		FeePercentage:          t.FeePercentage,
		ExchangeRate:           t.ExchangeRate,
		RateStale:              t.RateStale,
		SenderInfo:             FromDomainParty(t.Sender),
		RecipientInfo:          FromDomainParty(t.Recipient),
		LightningInvoice:       t.PaymentRequest,
		LightningPaymentHash:   t.PaymentHash,
		CollectionReference:    t.FiatCollectionReference,
		InboundConfirmationRef: t.InboundConfirmationRef,
		OutboundRef:            t.OutboundRef,
		FailureLeg:             string(t.FailureLeg),
		FailureReason:          t.FailureReason,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		CompletedAt:            t.CompletedAt,
	}
}

// ListTransactionsParams are the query parameters of the transaction listing.
type ListTransactionsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
	Status    string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled"`
	Direction string `form:"direction" binding:"omitempty,oneof=asset_to_fiat fiat_to_asset btc_to_zmw zmw_to_btc"`
	// Type is the older spelling of Direction.
	Type string `form:"type" binding:"omitempty,oneof=asset_to_fiat fiat_to_asset btc_to_zmw zmw_to_btc"`
}

const (
	// DefaultTransactionPageSize applies when no limit is given.
	DefaultTransactionPageSize = 20
	// MaxTransactionPageSize caps larger requested limits.
	MaxTransactionPageSize = 100
)

// ToFilter converts query parameters to a repository filter.
func (p ListTransactionsParams) ToFilter() domain.ListTransactionsFilter {
	f := domain.ListTransactionsFilter{Limit: p.Limit, Offset: p.Offset}
	if f.Limit <= 0 {
		f.Limit = DefaultTransactionPageSize
	}
	if p.Status != "" {
		s := domain.TransactionStatus(p.Status)
		f.Status = &s
	}
	direction := p.Direction
	if direction == "" {
		direction = p.Type
	}
	if direction != "" {
		d := CalculateFeesRequest{TransactionType: direction}.Direction()
		f.Direction = &d
	}
	return f
}

// ListTransactionsResponse is a page of transactions with the total count.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ToListTransactionsResponse converts a page of domain transactions.
func ToListTransactionsResponse(txs []domain.Transaction, total int, filter domain.ListTransactionsFilter) ListTransactionsResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = ToTransactionResponse(&txs[i])
	}
	return ListTransactionsResponse{Transactions: out, Total: total, Limit: filter.Limit, Offset: filter.Offset}
}

// PoolResponse is one liquidity pool with its derived availability.
type PoolResponse struct {
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LiquidityStatusResponse lists every pool.
type LiquidityStatusResponse struct {
	Pools []PoolResponse `json:"pools"`
}

// ToLiquidityStatusResponse converts pools to the response DTO.
func ToLiquidityStatusResponse(pools []domain.LiquidityPool) LiquidityStatusResponse {
	out := make([]PoolResponse, len(pools))
	for i, p := range pools {
		out[i] = PoolResponse{
			Currency:  string(p.Currency),
			Balance:   p.Balance,
			Reserved:  p.Reserved,
			Available: p.Available(),
			UpdatedAt: p.UpdatedAt,
		}
	}
	return LiquidityStatusResponse{Pools: out}
}
