package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/utils"
	"github.com/shopspring/decimal"
)

type liquidityService struct {
	BaseService
	repo    portsrepo.LiquidityRepositoryFacade
	metrics *observability.Metrics
}

// LiquidityServiceOption is a functional option for configuring the liquidity service
type LiquidityServiceOption func(*liquidityService)

// WithLiquidityMetrics records reservation outcomes and pool gauges.
func WithLiquidityMetrics(m *observability.Metrics) LiquidityServiceOption {
	return func(s *liquidityService) {
		s.metrics = m
	}
}

// NewLiquidityService creates the liquidity manager over repo.
func NewLiquidityService(repo portsrepo.LiquidityRepositoryFacade, options ...LiquidityServiceOption) portssvc.LiquiditySvcFacade {
	svc := &liquidityService{repo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LiquiditySvcFacade = (*liquidityService)(nil)

func validateLiquidityAmount(currency domain.Currency, amount decimal.Decimal) error {
	if !currency.IsValid() {
		return fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, currency)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if !amount.Equal(amount.Truncate(currency.Precision())) {
		return fmt.Errorf("%w: %s amounts have at most %d decimal places", apperrors.ErrValidation, currency, currency.Precision())
	}
	return nil
}

func amountAttr(currency domain.Currency, amount decimal.Decimal) slog.Attr {
	return slog.String("amount", utils.FormatWithCurrencyPrecision(amount, currency))
}

func (s *liquidityService) CheckAvailability(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error) {
	pool, err := s.GetPool(ctx, currency)
	if err != nil {
		return false, err
	}
	return pool.Covers(amount), nil
}

func (s *liquidityService) GetPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, currency)
	}
	pool, err := s.repo.FindPool(ctx, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("liquidity pool %s", currency))
		}
		s.LogError(ctx, err, "Failed to load liquidity pool", slog.String("currency", string(currency)))
		return nil, fmt.Errorf("failed to get liquidity pool: %w", err)
	}
	return pool, nil
}

func (s *liquidityService) ListPools(ctx context.Context) ([]domain.LiquidityPool, error) {
	pools, err := s.repo.ListPools(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list liquidity pools")
		return nil, fmt.Errorf("failed to list liquidity pools: %w", err)
	}
	for i := range pools {
		s.metrics.PoolAvailable(string(pools[i].Currency), pools[i].Available())
	}
	return pools, nil
}

func (s *liquidityService) Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	if err := validateLiquidityAmount(currency, amount); err != nil {
		return err
	}
	err := s.repo.Reserve(ctx, currency, amount)
	switch {
	case err == nil:
		s.metrics.Reservation(string(currency), "reserved")
		s.LogDebug(ctx, "Reserved liquidity", slog.String("currency", string(currency)), amountAttr(currency, amount))
		return nil
	case errors.Is(err, apperrors.ErrInsufficientLiquidity):
		s.metrics.Reservation(string(currency), "insufficient")
		s.LogInfo(ctx, "Insufficient liquidity", slog.String("currency", string(currency)), amountAttr(currency, amount))
		return err
	default:
		s.metrics.Reservation(string(currency), "error")
		s.LogError(ctx, err, "Failed to reserve liquidity", slog.String("currency", string(currency)))
		return fmt.Errorf("failed to reserve liquidity: %w", err)
	}
}

func (s *liquidityService) Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	if err := validateLiquidityAmount(currency, amount); err != nil {
		return err
	}
	clamped, err := s.repo.Release(ctx, currency, amount)
	if err != nil {
		s.LogError(ctx, err, "Failed to release liquidity", slog.String("currency", string(currency)), amountAttr(currency, amount))
		return fmt.Errorf("failed to release liquidity: %w", err)
	}
	if clamped {
		s.metrics.ReleaseClamped(string(currency))
		s.LogWarn(ctx, "Release exceeded reserved amount, clamped to zero",
			slog.String("currency", string(currency)),
			amountAttr(currency, amount))
	}
	return nil
}

func (s *liquidityService) Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	if err := validateLiquidityAmount(currency, amount); err != nil {
		return err
	}
	if err := s.repo.Consume(ctx, currency, amount); err != nil {
		s.LogError(ctx, err, "Failed to consume reserved liquidity", slog.String("currency", string(currency)), amountAttr(currency, amount))
		return fmt.Errorf("failed to consume liquidity: %w", err)
	}
	return nil
}

func (s *liquidityService) AddLiquidity(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	if err := validateLiquidityAmount(currency, amount); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, currency, amount); err != nil {
		s.LogError(ctx, err, "Failed to add liquidity", slog.String("currency", string(currency)), amountAttr(currency, amount))
		return fmt.Errorf("failed to add liquidity: %w", err)
	}
	s.LogInfo(ctx, "Liquidity added", slog.String("currency", string(currency)), amountAttr(currency, amount))
	return nil
}
