package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
)

var _ portsrepo.TransactionRepositoryFacade = (*Store)(nil)

func (s *Store) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	return s.write(ctx, func() error {
		if _, exists := s.transactions[tx.ID]; exists {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, tx.ID)
		}
		for _, other := range s.transactions {
			if sharesInboundReference(other, tx) {
				return fmt.Errorf("%w: transaction %s reuses an inbound rail reference", apperrors.ErrDuplicate, tx.ID)
			}
		}
		s.transactions[tx.ID] = tx
		return nil
	})
}

func sharesInboundReference(a, b domain.Transaction) bool {
	same := func(x, y string) bool { return x != "" && x == y }
	return same(a.AssetInvoiceID, b.AssetInvoiceID) ||
		same(a.PaymentHash, b.PaymentHash) ||
		same(a.FiatCollectionID, b.FiatCollectionID)
}

func (s *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &tx, nil
}

func (s *Store) FindTransactionByInboundReference(_ context.Context, rail domain.Rail, reference string) (*domain.Transaction, error) {
	if rail != domain.RailAsset && rail != domain.RailFiat {
		return nil, apperrors.NewValidationError("unknown rail " + string(rail))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.transactions {
		var match bool
		if rail == domain.RailAsset {
			match = tx.Direction == domain.DirectionAssetToFiat &&
				(tx.AssetInvoiceID == reference || tx.PaymentHash == reference)
		} else {
			match = tx.Direction == domain.DirectionFiatToAsset &&
				(tx.FiatCollectionID == reference || tx.FiatCollectionReference == reference)
		}
		if match && reference != "" {
			return &tx, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error) {
	s.mu.RLock()
	matched := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if filter.Status != nil && tx.Status != *filter.Status {
			continue
		}
		if filter.Direction != nil && tx.Direction != *filter.Direction {
			continue
		}
		matched = append(matched, tx)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (s *Store) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	var stale []domain.Transaction
	for _, tx := range s.transactions {
		if tx.Status == domain.StatusPending && tx.CreatedAt.Before(cutoff) {
			stale = append(stale, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	if len(update.From) == 0 {
		return false, apperrors.NewValidationError("status update needs at least one source status")
	}
	var applied bool
	err := s.write(ctx, func() error {
		tx, ok := s.transactions[id]
		if !ok {
			return nil
		}
		if !containsStatus(update.From, tx.Status) {
			return nil
		}
		tx.Status = update.To
		if update.InboundConfirmationRef != nil {
			tx.InboundConfirmationRef = *update.InboundConfirmationRef
		}
		if update.OutboundRef != nil {
			tx.OutboundRef = *update.OutboundRef
		}
		if update.FailureLeg != nil {
			tx.FailureLeg = *update.FailureLeg
		}
		if update.FailureReason != nil {
			tx.FailureReason = *update.FailureReason
		}
		if update.CompletedAt != nil {
			tx.CompletedAt = update.CompletedAt
		}
		tx.UpdatedAt = update.UpdatedAt
		s.transactions[id] = tx
		applied = true
		return nil
	})
	return applied, err
}

func containsStatus(list []domain.TransactionStatus, s domain.TransactionStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
