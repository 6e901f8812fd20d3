// Package voltage drives Lightning through the Voltage REST API.
package voltage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11"
)

// RailName labels Voltage errors and metrics.
const RailName = "voltage"

// DestinationResolver turns a Lightning destination into an invoice.
type DestinationResolver interface {
	PaymentRequest(ctx context.Context, destination domain.Party, amountSats int64) (string, error)
}

type createInvoiceRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Expiry      int64  `json:"expiry"`
}

type invoiceResponse struct {
	ID             string    `json:"id"`
	PaymentRequest string    `json:"payment_request"`
	PaymentHash    string    `json:"payment_hash"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type invoiceStatusResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	AmountPaid int64  `json:"amount_paid"`
	Amount     int64  `json:"amount"`
}

type payRequest struct {
	PaymentRequest string `json:"payment_request"`
	// Amount is in satoshis and only sent for amountless invoices.
	Amount int64 `json:"amount,omitempty"`
}

type paymentResponse struct {
	ID          string `json:"id"`
	PaymentHash string `json:"payment_hash"`
	Status      string `json:"status"`
}

// Client implements rails.AssetRail.
type Client struct {
	http     *railhttp.Client
	resolver DestinationResolver
	expiry   time.Duration
	now      func() time.Time
}

var (
	_ rails.AssetRail     = (*Client)(nil)
	_ rails.InboundLookup = (*Client)(nil)
)

// NewClient returns a Voltage adapter. Invoices it creates expire after expiry.
func NewClient(httpClient *railhttp.Client, resolver DestinationResolver, expiry time.Duration) *Client {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Client{http: httpClient, resolver: resolver, expiry: expiry, now: time.Now}
}

func (c *Client) CreateInboundInstrument(ctx context.Context, amountSats int64, memo string) (*rails.InboundInstrument, error) {
	var resp invoiceResponse
	err := c.http.Do(ctx, "create_invoice", http.MethodPost, "/invoices", createInvoiceRequest{
		Amount:      amountSats,
		Description: memo,
		Expiry:      int64(c.expiry / time.Second),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.PaymentRequest == "" {
		return nil, rails.NewError(RailName, "create_invoice", 0, fmt.Errorf("response is missing the invoice id or payment request"))
	}
	expires := resp.ExpiresAt
	if expires.IsZero() {
		expires = c.now().Add(c.expiry)
	}
	return &rails.InboundInstrument{
		ExternalID:     resp.ID,
		PaymentRequest: resp.PaymentRequest,
		PaymentHash:    resp.PaymentHash,
		ExpiresAt:      expires.UTC(),
	}, nil
}

// LookupInboundInstrument fetches the invoice with id externalID.
func (c *Client) LookupInboundInstrument(ctx context.Context, externalID string) (*rails.InboundStatus, error) {
	var resp invoiceStatusResponse
	if err := c.http.Do(ctx, "get_invoice", http.MethodGet, "/invoices/"+url.PathEscape(externalID), nil, &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "paid", "settled":
		paid := resp.AmountPaid
		if paid == 0 {
			paid = resp.Amount
		}
		return &rails.InboundStatus{State: rails.InboundSettled, AmountSats: paid}, nil
	case "expired", "cancelled", "canceled", "failed":
		return &rails.InboundStatus{State: rails.InboundCanceled}, nil
	default:
		return &rails.InboundStatus{State: rails.InboundOpen}, nil
	}
}

// PayOutboundInstrument pays amountSats, resolving Lightning addresses first.
// Invoices encoding any other amount are refused before anything is sent.
func (c *Client) PayOutboundInstrument(ctx context.Context, destination domain.Party, amountSats int64) (*rails.OutboundReceipt, error) {
	pr, err := c.resolver.PaymentRequest(ctx, destination, amountSats)
	if err != nil {
		return nil, err
	}
	inv, err := bolt11.CheckAmount(pr, amountSats, true)
	if err != nil {
		return nil, rails.NewError(RailName, "pay_invoice", 0, err)
	}
	req := payRequest{PaymentRequest: pr}
	if !inv.HasAmount() {
		req.Amount = amountSats
	}
	var resp paymentResponse
	if err := c.http.Do(ctx, "pay_invoice", http.MethodPost, "/payments", req, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "failed" {
		return nil, rails.NewError(RailName, "pay_invoice", 0, fmt.Errorf("payment %s failed", resp.ID))
	}
	id := resp.ID
	if id == "" {
		id = resp.PaymentHash
	}
	return &rails.OutboundReceipt{ExternalID: id}, nil
}
