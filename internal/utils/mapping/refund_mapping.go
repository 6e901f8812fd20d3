package mapping

import (
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
)

// ToModelRefund converts a domain ManualRefund to its row form.
func ToModelRefund(d domain.ManualRefund) (models.ManualRefund, error) {
	party, err := encodeParty(d.Party)
	if err != nil {
		return models.ManualRefund{}, fmt.Errorf("encode refund party: %w", err)
	}
	return models.ManualRefund{
		ID:             d.ID,
		TransactionID:  d.TransactionID,
		Currency:       string(d.Currency),
		Amount:         d.Amount,
		Party:          party,
		Reason:         d.Reason,
		Status:         string(d.Status),
		ResolvedAt:     d.ResolvedAt,
		ResolvedBy:     nullString(d.ResolvedBy),
		ResolutionNote: nullString(d.ResolutionNote),
		Timestamps:     models.Timestamps{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}, nil
}

// ToDomainRefund converts a refund row to its domain form.
func ToDomainRefund(m models.ManualRefund) (domain.ManualRefund, error) {
	party, err := domain.UnmarshalParty(m.Party)
	if err != nil {
		return domain.ManualRefund{}, fmt.Errorf("decode party of refund %s: %w", m.ID, err)
	}
	return domain.ManualRefund{
		ID:             m.ID,
		TransactionID:  m.TransactionID,
		Currency:       domain.Currency(m.Currency),
		Amount:         m.Amount,
		Party:          party,
		Reason:         m.Reason,
		Status:         domain.RefundStatus(m.Status),
		ResolvedAt:     m.ResolvedAt,
		ResolvedBy:     derefString(m.ResolvedBy),
		ResolutionNote: derefString(m.ResolutionNote),
		Timestamps:     domain.Timestamps{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
	}, nil
}
