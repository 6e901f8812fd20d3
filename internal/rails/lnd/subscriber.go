package lnd

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/shopspring/decimal"
)

const (
	minBackoff = time.Second
	maxBackoff = time.Minute
)

// SettleCursor names the stored settle index of the invoice subscription.
const SettleCursor = "lnd_settle_index"

// CursorStore persists the settle index across restarts.
type CursorStore interface {
	GetCursor(ctx context.Context, name string) (uint64, error)
	SaveCursor(ctx context.Context, name string, value uint64, at time.Time) error
}

// InvoiceSubscriber streams invoice updates from the node and feeds settled
// and cancelled invoices into the same path the provider webhooks use.
type InvoiceSubscriber struct {
	ln        lightningAPI
	processor portssvc.WebhookProcessorSvc
	cursors   CursorStore
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) bool
	now       func() time.Time

	settleIndex uint64
}

// NewInvoiceSubscriber returns a subscriber on c's node that resumes from
// the settle index kept in cursors.
func NewInvoiceSubscriber(c *Client, processor portssvc.WebhookProcessorSvc, cursors CursorStore, logger *slog.Logger) *InvoiceSubscriber {
	return newInvoiceSubscriber(c.ln, processor, cursors, logger)
}

func newInvoiceSubscriber(ln lightningAPI, processor portssvc.WebhookProcessorSvc, cursors CursorStore, logger *slog.Logger) *InvoiceSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceSubscriber{
		ln:        ln,
		processor: processor,
		cursors:   cursors,
		logger:    logger.With(slog.String("component", "lnd_invoice_subscriber")),
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

// Run subscribes until ctx is done, reconnecting with exponential backoff.
// Invoices settled while the process was down are replayed from the stored
// settle index; the pending guard makes repeats harmless.
func (s *InvoiceSubscriber) Run(ctx context.Context) {
	s.loadCursor(ctx)
	backoff := minBackoff
	for {
		subscribed, err := s.consume(ctx)
		if ctx.Err() != nil {
			s.logger.Info("Invoice subscription stopped")
			return
		}
		if subscribed {
			backoff = minBackoff
		}
		s.logger.Warn("Invoice subscription interrupted, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("backoff", backoff))
		if !s.sleep(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *InvoiceSubscriber) loadCursor(ctx context.Context) {
	if s.cursors == nil {
		return
	}
	idx, err := s.cursors.GetCursor(ctx, SettleCursor)
	if err != nil {
		// The reconciliation sweep still looks up invoices before cancelling.
		s.logger.Error("Failed to load settle index, subscribing from the current tip", slog.String("error", err.Error()))
		return
	}
	if idx > s.settleIndex {
		s.settleIndex = idx
	}
	s.logger.Info("Resuming invoice subscription", slog.Uint64("settle_index", s.settleIndex))
}

// consume reads one subscription until it breaks. subscribed reports whether
// the node accepted the subscription.
func (s *InvoiceSubscriber) consume(ctx context.Context) (subscribed bool, err error) {
	stream, err := s.ln.SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{SettleIndex: s.settleIndex})
	if err != nil {
		return false, err
	}
	for {
		invoice, err := stream.Recv()
		if err != nil {
			return true, err
		}
		event, ok := toWebhookEvent(invoice)
		if !ok {
			continue
		}
		result := s.processor.ProcessWebhook(ctx, event)
		s.logger.Debug("Invoice update processed",
			slog.String("payment_hash", event.ExternalReference),
			slog.String("outcome", string(result.Outcome)))
		if invoice.SettleIndex > s.settleIndex {
			s.settleIndex = invoice.SettleIndex
			s.saveCursor(ctx)
		}
	}
}

func (s *InvoiceSubscriber) saveCursor(ctx context.Context) {
	if s.cursors == nil {
		return
	}
	if err := s.cursors.SaveCursor(ctx, SettleCursor, s.settleIndex, s.now().UTC()); err != nil {
		s.logger.Warn("Failed to persist settle index",
			slog.Uint64("settle_index", s.settleIndex),
			slog.String("error", err.Error()))
	}
}

func toWebhookEvent(invoice *lnrpc.Invoice) (domain.WebhookEvent, bool) {
	hash := hex.EncodeToString(invoice.RHash)
	event := domain.WebhookEvent{
		Rail:              domain.RailAsset,
		ExternalReference: hash,
		ConfirmationRef:   hash,
		Status:            invoice.State.String(),
	}
	switch invoice.State {
	case lnrpc.Invoice_SETTLED:
		event.EventType = domain.WebhookSucceeded
		event.ConfirmedAmount = decimal.New(invoice.AmtPaidSat, -domain.BTCPrecision)
	case lnrpc.Invoice_CANCELED:
		event.EventType = domain.WebhookFailed
	default:
		return domain.WebhookEvent{}, false
	}
	return event, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errString(err error) string {
	if err == nil {
		return "stream ended"
	}
	return err.Error()
}
