package handlers_test

import (
	"context"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock ExchangeService ---
type MockExchangeService struct {
	mock.Mock
}

func (m *MockExchangeService) CreateAssetToFiat(ctx context.Context, req dto.CreateAssetToFiatRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockExchangeService) CreateFiatToAsset(ctx context.Context, req dto.CreateFiatToAssetRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockExchangeService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockExchangeService) ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *MockExchangeService) PreviewFee(ctx context.Context, direction domain.Direction, principal decimal.Decimal) (*domain.FeeCalculation, *domain.RateQuote, error) {
	args := m.Called(ctx, direction, principal.String())
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.FeeCalculation), args.Get(1).(*domain.RateQuote), args.Error(2)
}

func (m *MockExchangeService) CancelTransaction(ctx context.Context, id, operatorID, reason string) (*domain.Transaction, error) {
	args := m.Called(ctx, id, operatorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockExchangeService) ProcessWebhook(ctx context.Context, event domain.WebhookEvent) domain.WebhookResult {
	return m.Called(ctx, event).Get(0).(domain.WebhookResult)
}

var _ portssvc.ExchangeSvcFacade = (*MockExchangeService)(nil)

// --- Mock LiquidityService ---
type MockLiquidityService struct {
	mock.Mock
}

func (m *MockLiquidityService) CheckAvailability(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, currency, amount.String())
	return args.Bool(0), args.Error(1)
}

func (m *MockLiquidityService) GetPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiquidityPool), args.Error(1)
}

func (m *MockLiquidityService) ListPools(ctx context.Context) ([]domain.LiquidityPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LiquidityPool), args.Error(1)
}

func (m *MockLiquidityService) Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

func (m *MockLiquidityService) Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

func (m *MockLiquidityService) Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

func (m *MockLiquidityService) AddLiquidity(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return m.Called(ctx, currency, amount.String()).Error(0)
}

var _ portssvc.LiquiditySvcFacade = (*MockLiquidityService)(nil)

// --- Mock RateService ---
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) CurrentRate(ctx context.Context) (*domain.RateQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateQuote), args.Error(1)
}

// --- Mock RefundService ---
type MockRefundService struct {
	mock.Mock
}

func (m *MockRefundService) ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ManualRefund), args.Error(1)
}

func (m *MockRefundService) ResolveRefund(ctx context.Context, id, operatorID, note string) (*domain.ManualRefund, error) {
	args := m.Called(ctx, id, operatorID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ManualRefund), args.Error(1)
}
