package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/shopspring/decimal"
)

const sweepBatchSize = 100

// ReconciliationSettings controls the stale pending sweep.
type ReconciliationSettings struct {
	// PendingTimeout is how long a transaction may wait for its inbound leg.
	PendingTimeout time.Duration
	Interval       time.Duration
}

type reconciliationService struct {
	BaseService
	lifecycle
	settings ReconciliationSettings

	lookup    rails.InboundLookup
	processor portssvc.WebhookProcessorSvc
}

// ReconciliationServiceOption is a functional option for configuring the sweeper
type ReconciliationServiceOption func(*reconciliationService)

// WithReconciliationEvents publishes cancellations to pub.
func WithReconciliationEvents(pub gateways.EventPublisher) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.events = pub
	}
}

// WithReconciliationMetrics records the transitions the sweep makes.
func WithReconciliationMetrics(m *observability.Metrics) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.metrics = m
	}
}

// WithInboundLookup makes the sweep ask the asset rail about an invoice
// before cancelling its transaction. Invoices found settled are fed to
// processor as if the rail had reported them.
func WithInboundLookup(lookup rails.InboundLookup, processor portssvc.WebhookProcessorSvc) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.lookup = lookup
		s.processor = processor
	}
}

// WithReconciliationClock overrides the clock, for tests.
func WithReconciliationClock(now func() time.Time) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.now = now
	}
}

// NewReconciliationService creates the sweeper that cancels pending
// transactions whose inbound payment never arrived.
func NewReconciliationService(settings ReconciliationSettings, repos portsrepo.RepositoryProvider, liquidity portssvc.LiquidityWriterSvc, options ...ReconciliationServiceOption) portssvc.ReconciliationSvc {
	svc := &reconciliationService{
		lifecycle: lifecycle{
			txManager: repos.TxManager,
			txRepo:    repos.TransactionRepo,
			liquidity: liquidity,
		},
		settings: settings,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

func (s *reconciliationService) SweepStalePending(ctx context.Context) (int, error) {
	if s.settings.PendingTimeout <= 0 {
		return 0, nil
	}
	now := s.Now()
	cutoff := now.Add(-s.settings.PendingTimeout)

	stale, err := s.txRepo.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to list stale pending transactions")
		return 0, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}

	cancelled := 0
	reason := fmt.Sprintf("inbound payment not received within %s", s.settings.PendingTimeout)
	for i := range stale {
		tx := &stale[i]
		if s.keepPending(ctx, tx) {
			continue
		}
		applied, err := s.abandon(ctx, tx, []domain.TransactionStatus{domain.StatusPending}, domain.StatusCancelled,
			domain.FailureLegReconciliation, reason, now, nil)
		if err != nil {
			s.LogError(ctx, err, "Failed to cancel stale transaction", slog.String("transaction_id", tx.ID))
			continue
		}
		if !applied {
			continue
		}
		cancelled++
		s.publish(ctx, transactionEvent(gateways.EventTransactionCancelled, tx, now))
	}
	if cancelled > 0 {
		s.LogInfo(ctx, "Cancelled stale pending transactions", slog.Int("count", cancelled))
	}
	return cancelled, nil
}

// keepPending reports whether tx must not be cancelled this round: its
// invoice was paid (and has now been processed) or the rail could not say.
func (s *reconciliationService) keepPending(ctx context.Context, tx *domain.Transaction) bool {
	if s.lookup == nil || s.processor == nil || tx.Direction != domain.DirectionAssetToFiat || tx.AssetInvoiceID == "" {
		return false
	}
	status, err := s.lookup.LookupInboundInstrument(ctx, tx.AssetInvoiceID)
	if err != nil {
		s.LogWarn(ctx, "Invoice lookup failed, leaving transaction pending",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()))
		return true
	}
	if status.State != rails.InboundSettled {
		return false
	}
	result := s.processor.ProcessWebhook(ctx, domain.WebhookEvent{
		Rail:              domain.RailAsset,
		EventType:         domain.WebhookSucceeded,
		ExternalReference: tx.AssetInvoiceID,
		ConfirmationRef:   tx.AssetInvoiceID,
		ConfirmedAmount:   decimal.New(status.AmountSats, -domain.BTCPrecision),
		Status:            string(status.State),
	})
	s.LogInfo(ctx, "Stale transaction's invoice was paid, settling instead of cancelling",
		slog.String("transaction_id", tx.ID),
		slog.String("outcome", string(result.Outcome)))
	return true
}

func (s *reconciliationService) Run(ctx context.Context) {
	interval := s.settings.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.LogInfo(ctx, "Reconciliation sweeper started", slog.Duration("interval", interval), slog.Duration("pending_timeout", s.settings.PendingTimeout))
	for {
		select {
		case <-ctx.Done():
			s.LogInfo(ctx, "Reconciliation sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.SweepStalePending(ctx)
		}
	}
}
