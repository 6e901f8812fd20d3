package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock TransactionManager ---
// Runs fn directly; the mocks below do not model rollback.
type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// --- Mock LiquidityRepository ---
type MockLiquidityRepository struct {
	mock.Mock
}

func (m *MockLiquidityRepository) FindPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiquidityPool), args.Error(1)
}

func (m *MockLiquidityRepository) ListPools(ctx context.Context) ([]domain.LiquidityPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LiquidityPool), args.Error(1)
}

func (m *MockLiquidityRepository) Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

func (m *MockLiquidityRepository) Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, currency, amount.String())
	return args.Bool(0), args.Error(1)
}

func (m *MockLiquidityRepository) Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

func (m *MockLiquidityRepository) Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByInboundReference(ctx context.Context, rail domain.Rail, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, rail, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *MockTransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionStatus(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	args := m.Called(ctx, id, update)
	return args.Bool(0), args.Error(1)
}

// --- Mock RefundRepository ---
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindRefundByID(ctx context.Context, id string) (*domain.ManualRefund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ManualRefund), args.Error(1)
}

func (m *MockRefundRepository) ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ManualRefund), args.Error(1)
}

func (m *MockRefundRepository) SaveRefund(ctx context.Context, refund domain.ManualRefund) error {
	return m.Called(ctx, refund).Error(0)
}

func (m *MockRefundRepository) ResolveRefund(ctx context.Context, id, resolvedBy, note string, at time.Time) error {
	return m.Called(ctx, id, resolvedBy, note, at).Error(0)
}

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindLatestExchangeRate(ctx context.Context) (*domain.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	return m.Called(ctx, rate).Error(0)
}

// --- Mock rails ---
type MockAssetRail struct {
	mock.Mock
}

func (m *MockAssetRail) CreateInboundInstrument(ctx context.Context, amountSats int64, memo string) (*rails.InboundInstrument, error) {
	args := m.Called(ctx, amountSats, memo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rails.InboundInstrument), args.Error(1)
}

func (m *MockAssetRail) PayOutboundInstrument(ctx context.Context, destination domain.Party, amountSats int64) (*rails.OutboundReceipt, error) {
	args := m.Called(ctx, destination, amountSats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rails.OutboundReceipt), args.Error(1)
}

type MockFiatRail struct {
	mock.Mock
}

func (m *MockFiatRail) InitiateCollection(ctx context.Context, amount decimal.Decimal, payer domain.Party, reference string) (*rails.Collection, error) {
	args := m.Called(ctx, amount.String(), payer, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rails.Collection), args.Error(1)
}

func (m *MockFiatRail) InitiatePayout(ctx context.Context, amount decimal.Decimal, payee domain.Party, reference string) (*rails.OutboundReceipt, error) {
	args := m.Called(ctx, amount.String(), payee, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rails.OutboundReceipt), args.Error(1)
}

// --- Mock gateways ---
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRateSource) Name() string { return "mock" }

type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) Get(ctx context.Context) (*domain.RateQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateQuote), args.Error(1)
}

func (m *MockRateCache) Set(ctx context.Context, quote domain.RateQuote, ttl time.Duration) error {
	return m.Called(ctx, quote, ttl).Error(0)
}

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	events []gateways.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event gateways.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []gateways.EventType {
	out := make([]gateways.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// staticRate always quotes the same rate.
type staticRate struct {
	quote domain.RateQuote
	err   error
}

func (s staticRate) CurrentRate(context.Context) (*domain.RateQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	q := s.quote
	return &q, nil
}
