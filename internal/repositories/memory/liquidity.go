package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var _ portsrepo.LiquidityRepositoryFacade = (*Store)(nil)

func (s *Store) FindPool(_ context.Context, currency domain.Currency) (*domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[currency]
	if !ok {
		return nil, apperrors.NewNotFoundError("liquidity pool " + string(currency))
	}
	return &pool, nil
}

func (s *Store) ListPools(_ context.Context) ([]domain.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LiquidityPool, 0, len(s.pools))
	for _, c := range []domain.Currency{domain.CurrencyBTC, domain.CurrencyZMW} {
		if pool, ok := s.pools[c]; ok {
			out = append(out, pool)
		}
	}
	return out, nil
}

func (s *Store) Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return s.write(ctx, func() error {
		pool, ok := s.pools[currency]
		if !ok {
			return missingPool(currency)
		}
		if !pool.Covers(amount) {
			return fmt.Errorf("%w: %s pool cannot cover %s", apperrors.ErrInsufficientLiquidity, currency, amount)
		}
		pool.Reserved = pool.Reserved.Add(amount)
		pool.UpdatedAt = s.now()
		s.pools[currency] = pool
		return nil
	})
}

func (s *Store) Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error) {
	var clamped bool
	err := s.write(ctx, func() error {
		pool, ok := s.pools[currency]
		if !ok {
			return missingPool(currency)
		}
		clamped = pool.Reserved.LessThan(amount)
		pool.Reserved = decimal.Max(pool.Reserved.Sub(amount), decimal.Zero)
		pool.UpdatedAt = s.now()
		s.pools[currency] = pool
		return nil
	})
	return clamped, err
}

func (s *Store) Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return s.write(ctx, func() error {
		pool, ok := s.pools[currency]
		if !ok {
			return missingPool(currency)
		}
		if pool.Reserved.LessThan(amount) || pool.Balance.LessThan(amount) {
			return apperrors.NewDataIntegrityError(fmt.Sprintf("%s pool holds less than %s in reserve", currency, amount))
		}
		pool.Balance = pool.Balance.Sub(amount)
		pool.Reserved = pool.Reserved.Sub(amount)
		pool.UpdatedAt = s.now()
		s.pools[currency] = pool
		return nil
	})
}

func (s *Store) Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	return s.write(ctx, func() error {
		pool, ok := s.pools[currency]
		if !ok {
			return missingPool(currency)
		}
		pool.Balance = pool.Balance.Add(amount)
		pool.UpdatedAt = s.now()
		s.pools[currency] = pool
		return nil
	})
}

func missingPool(currency domain.Currency) error {
	return apperrors.NewDataIntegrityError("liquidity pool " + string(currency) + " is missing")
}
