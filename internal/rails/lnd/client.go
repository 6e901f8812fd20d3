// Package lnd drives Lightning through an LND node over gRPC.
package lnd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
)

// RailName labels LND errors and metrics.
const RailName = "lnd"

// lightningAPI is the part of lnrpc.LightningClient the adapter uses.
type lightningAPI interface {
	AddInvoice(ctx context.Context, in *lnrpc.Invoice, opts ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error)
	DecodePayReq(ctx context.Context, in *lnrpc.PayReqString, opts ...grpc.CallOption) (*lnrpc.PayReq, error)
	SubscribeInvoices(ctx context.Context, in *lnrpc.InvoiceSubscription, opts ...grpc.CallOption) (lnrpc.Lightning_SubscribeInvoicesClient, error)
	LookupInvoice(ctx context.Context, in *lnrpc.PaymentHash, opts ...grpc.CallOption) (*lnrpc.Invoice, error)
}

// routerAPI is the part of routerrpc.RouterClient the adapter uses.
type routerAPI interface {
	SendPaymentV2(ctx context.Context, in *routerrpc.SendPaymentRequest, opts ...grpc.CallOption) (routerrpc.Router_SendPaymentV2Client, error)
}

// DestinationResolver turns a Lightning destination into an invoice.
type DestinationResolver interface {
	PaymentRequest(ctx context.Context, destination domain.Party, amountSats int64) (string, error)
}

// Config holds connection and payment settings.
type Config struct {
	Host           string
	TLSCertPath    string
	MacaroonPath   string
	InvoiceExpiry  time.Duration
	PaymentTimeout time.Duration
	FeeLimitSats   int64
}

// Client implements rails.AssetRail against an LND node.
type Client struct {
	cfg      Config
	ln       lightningAPI
	router   routerAPI
	resolver DestinationResolver
	conn     *grpc.ClientConn
	now      func() time.Time
}

var (
	_ rails.AssetRail     = (*Client)(nil)
	_ rails.InboundLookup = (*Client)(nil)
)

// NewClient dials the node with its TLS certificate and macaroon.
func NewClient(cfg Config, resolver DestinationResolver) (*Client, error) {
	creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load LND TLS cert: %w", err)
	}

	macBytes, err := os.ReadFile(cfg.MacaroonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read LND macaroon: %w", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LND macaroon: %w", err)
	}
	macCreds, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("failed to create macaroon credential: %w", err)
	}

	conn, err := grpc.Dial(cfg.Host,
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(macCreds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial LND at %s: %w", cfg.Host, err)
	}

	c := newClient(cfg, lnrpc.NewLightningClient(conn), routerrpc.NewRouterClient(conn), resolver)
	c.conn = conn
	return c, nil
}

func newClient(cfg Config, ln lightningAPI, router routerAPI, resolver DestinationResolver) *Client {
	if cfg.InvoiceExpiry <= 0 {
		cfg.InvoiceExpiry = time.Hour
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = time.Minute
	}
	return &Client{cfg: cfg, ln: ln, router: router, resolver: resolver, now: time.Now}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// CreateInboundInstrument adds an invoice. Its payment hash doubles as the
// external id, which is what the invoice subscriber reports back.
func (c *Client) CreateInboundInstrument(ctx context.Context, amountSats int64, memo string) (*rails.InboundInstrument, error) {
	resp, err := c.ln.AddInvoice(ctx, &lnrpc.Invoice{
		Memo:   memo,
		Value:  amountSats,
		Expiry: int64(c.cfg.InvoiceExpiry / time.Second),
	})
	if err != nil {
		return nil, rails.NewError(RailName, "add_invoice", 0, err)
	}
	hash := hex.EncodeToString(resp.RHash)
	return &rails.InboundInstrument{
		ExternalID:     hash,
		PaymentRequest: resp.PaymentRequest,
		PaymentHash:    hash,
		ExpiresAt:      c.now().Add(c.cfg.InvoiceExpiry).UTC(),
	}, nil
}

// LookupInboundInstrument reports the node's view of the invoice whose
// payment hash is externalID.
func (c *Client) LookupInboundInstrument(ctx context.Context, externalID string) (*rails.InboundStatus, error) {
	inv, err := c.ln.LookupInvoice(ctx, &lnrpc.PaymentHash{RHashStr: externalID})
	if err != nil {
		return nil, rails.NewError(RailName, "lookup_invoice", 0, err)
	}
	status := &rails.InboundStatus{State: rails.InboundOpen}
	switch inv.State {
	case lnrpc.Invoice_SETTLED:
		status.State = rails.InboundSettled
		status.AmountSats = inv.AmtPaidSat
	case lnrpc.Invoice_CANCELED:
		status.State = rails.InboundCanceled
	}
	return status, nil
}

// PayOutboundInstrument pays amountSats to destination and waits for a
// terminal payment status. Invoices that encode a different amount are refused.
func (c *Client) PayOutboundInstrument(ctx context.Context, destination domain.Party, amountSats int64) (*rails.OutboundReceipt, error) {
	pr, err := c.resolver.PaymentRequest(ctx, destination, amountSats)
	if err != nil {
		return nil, err
	}

	decoded, err := c.ln.DecodePayReq(ctx, &lnrpc.PayReqString{PayReq: pr})
	if err != nil {
		return nil, rails.NewError(RailName, "decode_invoice", 0, err)
	}
	req := &routerrpc.SendPaymentRequest{
		PaymentRequest: pr,
		TimeoutSeconds: int32(c.cfg.PaymentTimeout / time.Second),
		FeeLimitSat:    c.cfg.FeeLimitSats,
	}
	switch decoded.NumSatoshis {
	case 0:
		req.Amt = amountSats
	case amountSats:
	default:
		return nil, rails.NewError(RailName, "decode_invoice", 0,
			fmt.Errorf("invoice is for %d sats, expected %d", decoded.NumSatoshis, amountSats))
	}

	stream, err := c.router.SendPaymentV2(ctx, req)
	if err != nil {
		return nil, rails.NewError(RailName, "send_payment", 0, err)
	}
	for {
		payment, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("payment stream closed before a final status")
			}
			return nil, rails.NewError(RailName, "send_payment", 0, err)
		}
		switch payment.Status {
		case lnrpc.Payment_SUCCEEDED:
			return &rails.OutboundReceipt{ExternalID: payment.PaymentHash}, nil
		case lnrpc.Payment_FAILED:
			return nil, rails.NewError(RailName, "send_payment", 0,
				fmt.Errorf("payment failed: %s", payment.FailureReason.String()))
		}
	}
}
