package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
)

var (
	_ portsrepo.ExchangeRateRepositoryFacade = (*Store)(nil)
	_ portsrepo.RefundRepositoryFacade       = (*Store)(nil)
)

// maxRates bounds the rate history kept in memory.
const maxRates = 1000

func (s *Store) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	return s.write(ctx, func() error {
		s.rates = append(s.rates, rate)
		if len(s.rates) > maxRates {
			s.rates = s.rates[len(s.rates)-maxRates:]
		}
		return nil
	})
}

func (s *Store) FindLatestExchangeRate(_ context.Context) (*domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rates) == 0 {
		return nil, apperrors.ErrNotFound
	}
	latest := s.rates[0]
	for _, r := range s.rates[1:] {
		if r.FetchedAt.After(latest.FetchedAt) {
			latest = r
		}
	}
	return &latest, nil
}

func (s *Store) SaveRefund(ctx context.Context, refund domain.ManualRefund) error {
	return s.write(ctx, func() error {
		for _, existing := range s.refunds {
			if existing.ID == refund.ID || existing.TransactionID == refund.TransactionID {
				return fmt.Errorf("%w: refund for transaction %s already queued", apperrors.ErrDuplicate, refund.TransactionID)
			}
		}
		s.refunds[refund.ID] = refund
		s.refundOrder = append(s.refundOrder, refund.ID)
		return nil
	})
}

func (s *Store) FindRefundByID(_ context.Context, id string) (*domain.ManualRefund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refund, ok := s.refunds[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &refund, nil
}

func (s *Store) ListRefunds(_ context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ManualRefund, 0, len(s.refundOrder))
	for _, id := range s.refundOrder {
		refund := s.refunds[id]
		if status != nil && refund.Status != *status {
			continue
		}
		out = append(out, refund)
	}
	return out, nil
}

func (s *Store) ResolveRefund(ctx context.Context, id, resolvedBy, note string, at time.Time) error {
	return s.write(ctx, func() error {
		refund, ok := s.refunds[id]
		if !ok || refund.Status != domain.RefundOpen {
			return fmt.Errorf("%w: no open refund %s", apperrors.ErrNotFound, id)
		}
		refund.Status = domain.RefundResolved
		refund.ResolvedAt = &at
		refund.ResolvedBy = resolvedBy
		refund.ResolutionNote = note
		refund.UpdatedAt = at
		s.refunds[id] = refund
		return nil
	})
}

var _ portsrepo.CursorRepositoryFacade = (*Store)(nil)

func (s *Store) GetCursor(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[name], nil
}

func (s *Store) SaveCursor(ctx context.Context, name string, value uint64, _ time.Time) error {
	return s.write(ctx, func() error {
		if value > s.cursors[name] {
			s.cursors[name] = value
		}
		return nil
	})
}
