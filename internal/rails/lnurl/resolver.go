// Package lnurl turns Lightning destinations into payable BOLT11 invoices.
// Lightning addresses are resolved with the LNURL-pay flow (LUD-06, LUD-16).
package lnurl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11"
)

// RailName labels resolver errors and metrics.
const RailName = "lnurl"

type payParams struct {
	Tag         string `json:"tag"`
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

type invoiceResponse struct {
	PR     string `json:"pr"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Resolver fetches invoices from Lightning address providers.
type Resolver struct {
	client *railhttp.Client
	scheme string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithScheme overrides the https scheme used to reach providers.
func WithScheme(scheme string) ResolverOption {
	return func(r *Resolver) { r.scheme = scheme }
}

// NewResolver returns a resolver that calls providers through client.
func NewResolver(client *railhttp.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{client: client, scheme: "https"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PaymentRequest returns the invoice to pay for destination. Invoices are
// passed through; Lightning addresses are resolved for amountSats.
func (r *Resolver) PaymentRequest(ctx context.Context, destination domain.Party, amountSats int64) (string, error) {
	switch d := destination.(type) {
	case domain.LightningInvoiceParty:
		return d.Invoice, nil
	case domain.LightningAddressParty:
		return r.ResolveAddress(ctx, d.Address, amountSats)
	default:
		return "", fmt.Errorf("destination %T is not a lightning destination", destination)
	}
}

// ResolveAddress runs the LNURL-pay flow for user@domain.
func (r *Resolver) ResolveAddress(ctx context.Context, address string, amountSats int64) (string, error) {
	user, host, ok := strings.Cut(strings.TrimSpace(address), "@")
	if !ok || user == "" || host == "" {
		return "", rails.NewError(RailName, "resolve", 0, fmt.Errorf("malformed lightning address %q", address))
	}

	var params payParams
	wellKnown := fmt.Sprintf("%s://%s/.well-known/lnurlp/%s", r.scheme, host, url.PathEscape(user))
	if err := r.client.Do(ctx, "resolve", http.MethodGet, wellKnown, nil, &params); err != nil {
		return "", err
	}
	if strings.EqualFold(params.Status, "ERROR") {
		return "", rails.NewError(RailName, "resolve", 0, fmt.Errorf("provider refused: %s", params.Reason))
	}
	if params.Tag != "payRequest" || params.Callback == "" {
		return "", rails.NewError(RailName, "resolve", 0, fmt.Errorf("%s is not an LNURL-pay endpoint", address))
	}

	msats := amountSats * 1000
	if msats < params.MinSendable || (params.MaxSendable > 0 && msats > params.MaxSendable) {
		return "", rails.NewError(RailName, "resolve", 0,
			fmt.Errorf("%d msat outside the provider's range [%d, %d]", msats, params.MinSendable, params.MaxSendable))
	}

	callback, err := url.Parse(params.Callback)
	if err != nil {
		return "", rails.NewError(RailName, "invoice", 0, fmt.Errorf("bad callback: %w", err))
	}
	q := callback.Query()
	q.Set("amount", strconv.FormatInt(msats, 10))
	callback.RawQuery = q.Encode()

	var inv invoiceResponse
	if err := r.client.Do(ctx, "invoice", http.MethodGet, callback.String(), nil, &inv); err != nil {
		return "", err
	}
	if strings.EqualFold(inv.Status, "ERROR") || inv.PR == "" {
		return "", rails.NewError(RailName, "invoice", 0, fmt.Errorf("provider returned no invoice: %s", inv.Reason))
	}
	// LUD-06: the returned invoice must be for exactly the requested amount.
	if _, err := bolt11.CheckAmount(inv.PR, amountSats, false); err != nil {
		return "", rails.NewError(RailName, "invoice", 0, err)
	}
	return inv.PR, nil
}
