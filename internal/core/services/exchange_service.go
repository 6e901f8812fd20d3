package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultRailTimeout = 30 * time.Second

// exchangeService coordinates both legs of an exchange.
type exchangeService struct {
	BaseService
	lifecycle
	refundRepo  portsrepo.RefundRepositoryFacade
	rates       portssvc.RateSvc
	fees        portssvc.FeeSvc
	assetRail   rails.AssetRail
	fiatRail    rails.FiatRail
	railTimeout time.Duration
}

// ExchangeDeps are the required collaborators of the exchange service.
type ExchangeDeps struct {
	Repos     portsrepo.RepositoryProvider
	Liquidity portssvc.LiquidityWriterSvc
	Rates     portssvc.RateSvc
	Fees      portssvc.FeeSvc
	AssetRail rails.AssetRail
	FiatRail  rails.FiatRail
}

// ExchangeServiceOption is a functional option for configuring the exchange service
type ExchangeServiceOption func(*exchangeService)

// WithEventPublisher publishes lifecycle events to pub.
func WithEventPublisher(pub gateways.EventPublisher) ExchangeServiceOption {
	return func(s *exchangeService) {
		s.events = pub
	}
}

// WithExchangeMetrics records transitions and webhook outcomes.
func WithExchangeMetrics(m *observability.Metrics) ExchangeServiceOption {
	return func(s *exchangeService) {
		s.metrics = m
	}
}

// WithExchangeClock overrides the clock, for tests.
func WithExchangeClock(now func() time.Time) ExchangeServiceOption {
	return func(s *exchangeService) {
		s.now = now
	}
}

// WithRailTimeout bounds every call to a payment rail.
func WithRailTimeout(d time.Duration) ExchangeServiceOption {
	return func(s *exchangeService) {
		if d > 0 {
			s.railTimeout = d
		}
	}
}

// NewExchangeService creates the exchange coordinator.
func NewExchangeService(deps ExchangeDeps, options ...ExchangeServiceOption) portssvc.ExchangeSvcFacade {
	svc := &exchangeService{
		lifecycle: lifecycle{
			txManager: deps.Repos.TxManager,
			txRepo:    deps.Repos.TransactionRepo,
			liquidity: deps.Liquidity,
		},
		refundRepo:  deps.Repos.RefundRepo,
		rates:       deps.Rates,
		fees:        deps.Fees,
		assetRail:   deps.AssetRail,
		fiatRail:    deps.FiatRail,
		railTimeout: defaultRailTimeout,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ExchangeSvcFacade = (*exchangeService)(nil)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}

// price quotes the rate and computes the fee for principal.
func (s *exchangeService) price(ctx context.Context, principal decimal.Decimal) (*domain.FeeCalculation, *domain.RateQuote, error) {
	quote, err := s.rates.CurrentRate(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to obtain exchange rate")
		return nil, nil, fmt.Errorf("failed to obtain exchange rate: %w", err)
	}
	calc, err := s.fees.ComputeFee(principal, quote.Rate)
	if err != nil {
		return nil, nil, err
	}
	return calc, quote, nil
}

func (s *exchangeService) CreateAssetToFiat(ctx context.Context, req dto.CreateAssetToFiatRequest) (*domain.Transaction, error) {
	recipient, ok := req.RecipientInfo.ToDomain().(domain.MobileMoneyParty)
	if !ok {
		return nil, validationErr("recipient_info.phone is required for BTC to ZMW exchanges")
	}
	if err := recipient.Validate(); err != nil {
		return nil, validationErr("%v", err)
	}

	calc, quote, err := s.price(ctx, req.AmountZMW)
	if err != nil {
		return nil, err
	}

	direction := domain.DirectionAssetToFiat
	if err := s.liquidity.Reserve(ctx, direction.ReservedCurrency(), calc.AmountFiat); err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("BTC to ZMW exchange: %s ZMW", calc.AmountFiat.StringFixed(domain.FiatPrecision))
	railCtx, cancel := context.WithTimeout(ctx, s.railTimeout)
	invoice, err := s.assetRail.CreateInboundInstrument(railCtx, calc.TotalSats, memo)
	cancel()
	if err != nil {
		s.LogError(ctx, err, "Failed to create Lightning invoice", slog.Int64("total_sats", calc.TotalSats))
		s.compensate(ctx, direction.ReservedCurrency(), calc.AmountFiat)
		return nil, fmt.Errorf("failed to create Lightning invoice: %w", err)
	}

	now := s.Now()
	tx := newTransaction(uuid.NewString(), direction, calc, quote, now)
	tx.Recipient = recipient
	tx.AssetInvoiceID = invoice.ExternalID
	tx.PaymentRequest = invoice.PaymentRequest
	tx.PaymentHash = invoice.PaymentHash
	if !invoice.ExpiresAt.IsZero() {
		expires := invoice.ExpiresAt.UTC()
		tx.InvoiceExpiresAt = &expires
	}

	if err := s.txRepo.SaveTransaction(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to save transaction", slog.String("transaction_id", tx.ID))
		s.compensate(ctx, direction.ReservedCurrency(), calc.AmountFiat)
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.metrics.Transition(string(direction), string(tx.Status))
	s.LogInfo(ctx, "Exchange created",
		slog.String("transaction_id", tx.ID),
		slog.String("direction", string(direction)),
		slog.String("amount_zmw", tx.AmountFiat.String()),
		slog.Int64("total_sats", tx.TotalSats),
		slog.Bool("rate_stale", tx.RateStale))
	s.publish(ctx, transactionEvent(gateways.EventTransactionCreated, &tx, now))
	return &tx, nil
}

func (s *exchangeService) CreateFiatToAsset(ctx context.Context, req dto.CreateFiatToAssetRequest) (*domain.Transaction, error) {
	sender := domain.MobileMoneyParty{Phone: strings.TrimSpace(req.SenderPhone)}
	if err := sender.Validate(); err != nil {
		return nil, validationErr("%v", err)
	}
	recipient := req.RecipientInfo.ToDomain()
	if !domain.IsLightningDestination(recipient) {
		return nil, validationErr("recipient_info must carry a lightning_address or lightning_invoice for ZMW to BTC exchanges")
	}
	if err := recipient.Validate(); err != nil {
		return nil, validationErr("%v", err)
	}

	calc, quote, err := s.price(ctx, req.AmountZMW)
	if err != nil {
		return nil, err
	}

	direction := domain.DirectionFiatToAsset
	now := s.Now()
	tx := newTransaction(uuid.NewString(), direction, calc, quote, now)
	tx.Sender = sender
	tx.Recipient = recipient

	if err := s.checkRecipientInvoice(recipient, tx.AmountSats); err != nil {
		return nil, err
	}

	if err := s.liquidity.Reserve(ctx, direction.ReservedCurrency(), tx.ReservedAmount()); err != nil {
		return nil, err
	}

	reference := direction.PaymentReference(tx.ID)
	railCtx, cancel := context.WithTimeout(ctx, s.railTimeout)
	collection, err := s.fiatRail.InitiateCollection(railCtx, tx.TotalFiat, sender, reference)
	cancel()
	if err != nil {
		s.LogError(ctx, err, "Failed to initiate mobile money collection", slog.String("reference", reference))
		s.compensate(ctx, direction.ReservedCurrency(), tx.ReservedAmount())
		return nil, fmt.Errorf("failed to initiate mobile money collection: %w", err)
	}
	tx.FiatCollectionID = collection.ExternalID
	tx.FiatCollectionReference = collection.Reference
	if tx.FiatCollectionReference == "" {
		tx.FiatCollectionReference = reference
	}

	if err := s.txRepo.SaveTransaction(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to save transaction", slog.String("transaction_id", tx.ID))
		s.compensate(ctx, direction.ReservedCurrency(), tx.ReservedAmount())
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.metrics.Transition(string(direction), string(tx.Status))
	s.LogInfo(ctx, "Exchange created",
		slog.String("transaction_id", tx.ID),
		slog.String("direction", string(direction)),
		slog.String("amount_zmw", tx.AmountFiat.String()),
		slog.Int64("amount_sats", tx.AmountSats),
		slog.Bool("rate_stale", tx.RateStale))
	s.publish(ctx, transactionEvent(gateways.EventTransactionCreated, &tx, now))
	return &tx, nil
}

// checkRecipientInvoice refuses a caller-supplied invoice that would pay out
// anything but amountSats. Amountless invoices are paid for amountSats.
func (s *exchangeService) checkRecipientInvoice(recipient domain.Party, amountSats int64) error {
	invoice, ok := recipient.(domain.LightningInvoiceParty)
	if !ok {
		return nil
	}
	inv, err := bolt11.CheckAmount(invoice.Invoice, amountSats, true)
	if err != nil {
		return validationErr("recipient_info.lightning_invoice: %v", err)
	}
	if inv.Expired(s.Now()) {
		return validationErr("recipient_info.lightning_invoice expired at %s", inv.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func newTransaction(id string, direction domain.Direction, calc *domain.FeeCalculation, quote *domain.RateQuote, now time.Time) domain.Transaction {
	return domain.Transaction{
		ID:            id,
		Direction:     direction,
		Status:        domain.StatusPending,
		AmountFiat:    calc.AmountFiat,
		AmountSats:    calc.AmountSats,
		FeeFiat:       calc.FeeFiat,
		FeeSats:       calc.FeeSats,
		TotalFiat:     calc.TotalFiat,
		TotalSats:     calc.TotalSats,
		FeePercentage: calc.FeePercentage,
		ExchangeRate:  quote.Rate,
		RateStale:     quote.Stale,
		Timestamps:    domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
}

// compensate releases a reservation taken by a creation that did not complete.
// It runs detached from ctx so a disconnected client cannot leak the reservation.
func (s *exchangeService) compensate(ctx context.Context, currency domain.Currency, amount decimal.Decimal) {
	if err := s.liquidity.Release(context.WithoutCancel(ctx), currency, amount); err != nil {
		s.LogError(ctx, err, "Failed to release reservation after aborted exchange",
			slog.String("currency", string(currency)),
			slog.String("amount", amount.String()))
	}
}

func (s *exchangeService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, validationErr("invalid transaction id %q", id)
	}
	tx, err := s.txRepo.FindTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transaction " + id)
		}
		s.LogError(ctx, err, "Failed to get transaction", slog.String("transaction_id", id))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (s *exchangeService) ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, validationErr("unknown status %q", *filter.Status)
	}
	if filter.Direction != nil && !filter.Direction.IsValid() {
		return nil, 0, validationErr("unknown direction %q", *filter.Direction)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = dto.DefaultTransactionPageSize
	case filter.Limit > dto.MaxTransactionPageSize:
		filter.Limit = dto.MaxTransactionPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	txs, total, err := s.txRepo.ListTransactions(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions")
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, total, nil
}

func (s *exchangeService) PreviewFee(ctx context.Context, direction domain.Direction, principal decimal.Decimal) (*domain.FeeCalculation, *domain.RateQuote, error) {
	if !direction.IsValid() {
		return nil, nil, validationErr("unknown transaction type %q", direction)
	}
	calc, quote, err := s.price(ctx, principal)
	if err != nil {
		return nil, nil, err
	}
	calc.EstimatedDelivery = direction.EstimatedDelivery()
	return calc, quote, nil
}

func (s *exchangeService) CancelTransaction(ctx context.Context, id, operatorID, reason string) (*domain.Transaction, error) {
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: only pending transactions can be cancelled, transaction is %s", apperrors.ErrInvalidTransition, tx.Status)
	}

	failureReason := fmt.Sprintf("cancelled by operator %s", operatorID)
	if reason = strings.TrimSpace(reason); reason != "" {
		failureReason += ": " + reason
	}
	now := s.Now()
	applied, err := s.abandon(ctx, tx, []domain.TransactionStatus{domain.StatusPending}, domain.StatusCancelled,
		domain.FailureLegOperator, failureReason, now, nil)
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel transaction", slog.String("transaction_id", id))
		return nil, fmt.Errorf("failed to cancel transaction: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: transaction %s changed state before it could be cancelled", apperrors.ErrInvalidTransition, id)
	}

	s.LogInfo(ctx, "Transaction cancelled by operator", slog.String("transaction_id", id), slog.String("operator_id", operatorID))
	s.publish(ctx, transactionEvent(gateways.EventTransactionCancelled, tx, now))
	return tx, nil
}
