// Package lipila drives mobile-money collections and payouts through Lipila.
package lipila

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/shopspring/decimal"
)

// RailName labels Lipila errors and metrics.
const RailName = "lipila"

const currencyZMW = "ZMW"

type depositRequest struct {
	Amount    json.Number `json:"amount"`
	Sender    string      `json:"sender"`
	Reference string      `json:"reference"`
	Currency  string      `json:"currency"`
}

type payoutRequest struct {
	Amount    json.Number `json:"amount"`
	Recipient string      `json:"recipient"`
	Reference string      `json:"reference"`
	Currency  string      `json:"currency"`
}

type transactionResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Client implements rails.FiatRail.
type Client struct {
	http *railhttp.Client
}

var _ rails.FiatRail = (*Client)(nil)

func NewClient(httpClient *railhttp.Client) *Client {
	return &Client{http: httpClient}
}

func (c *Client) InitiateCollection(ctx context.Context, amount decimal.Decimal, payer domain.Party, reference string) (*rails.Collection, error) {
	phone, err := phoneOf(payer, "collect")
	if err != nil {
		return nil, err
	}
	var resp transactionResponse
	err = c.http.Do(ctx, "collect", http.MethodPost, "/transactions/deposit", depositRequest{
		Amount:    wireAmount(amount),
		Sender:    phone,
		Reference: reference,
		Currency:  currencyZMW,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, rails.NewError(RailName, "collect", 0, fmt.Errorf("response is missing the transaction id"))
	}
	if resp.Status == "failed" {
		return nil, rails.NewError(RailName, "collect", 0, fmt.Errorf("collection %s was declined", resp.ID))
	}
	ref := resp.Reference
	if ref == "" {
		ref = reference
	}
	return &rails.Collection{ExternalID: resp.ID, Reference: ref}, nil
}

func (c *Client) InitiatePayout(ctx context.Context, amount decimal.Decimal, payee domain.Party, reference string) (*rails.OutboundReceipt, error) {
	phone, err := phoneOf(payee, "payout")
	if err != nil {
		return nil, err
	}
	var resp transactionResponse
	err = c.http.Do(ctx, "payout", http.MethodPost, "/transactions/payout", payoutRequest{
		Amount:    wireAmount(amount),
		Recipient: phone,
		Reference: reference,
		Currency:  currencyZMW,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status == "failed" {
		return nil, rails.NewError(RailName, "payout", 0, fmt.Errorf("payout %s was declined", resp.ID))
	}
	return &rails.OutboundReceipt{ExternalID: resp.ID}, nil
}

func phoneOf(p domain.Party, operation string) (string, error) {
	mm, ok := p.(domain.MobileMoneyParty)
	if !ok {
		return "", rails.NewError(RailName, operation, 0, fmt.Errorf("party %T has no mobile money number", p))
	}
	return mm.Phone, nil
}

// wireAmount renders ZMW as a JSON number with ngwee precision.
func wireAmount(amount decimal.Decimal) json.Number {
	return json.Number(amount.StringFixed(2))
}
