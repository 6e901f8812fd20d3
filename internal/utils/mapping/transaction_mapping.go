package mapping

import (
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
)

// ToModelTransaction converts a domain Transaction to its row form.
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	sender, err := encodeParty(d.Sender)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("encode sender: %w", err)
	}
	recipient, err := encodeParty(d.Recipient)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("encode recipient: %w", err)
	}
	return models.Transaction{
		ID:                      d.ID,
		Direction:               string(d.Direction),
		Status:                  string(d.Status),
		AmountFiat:              d.AmountFiat,
		AmountSats:              d.AmountSats,
		FeeFiat:                 d.FeeFiat,
		FeeSats:                 d.FeeSats,
		TotalFiat:               d.TotalFiat,
		TotalSats:               d.TotalSats,
		FeePercentage:           d.FeePercentage,
		ExchangeRate:            d.ExchangeRate,
		RateStale:               d.RateStale,
		Sender:                  sender,
		Recipient:               recipient,
		AssetInvoiceID:          nullString(d.AssetInvoiceID),
		PaymentRequest:          nullString(d.PaymentRequest),
		PaymentHash:             nullString(d.PaymentHash),
		InvoiceExpiresAt:        d.InvoiceExpiresAt,
		FiatCollectionID:        nullString(d.FiatCollectionID),
		FiatCollectionReference: nullString(d.FiatCollectionReference),
		InboundConfirmationRef:  nullString(d.InboundConfirmationRef),
		OutboundRef:             nullString(d.OutboundRef),
		FailureLeg:              nullString(string(d.FailureLeg)),
		FailureReason:           nullString(d.FailureReason),
		CompletedAt:             d.CompletedAt,
		Timestamps: models.Timestamps{
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
	}, nil
}

// ToDomainTransaction converts a transaction row to its domain form.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	sender, err := domain.UnmarshalParty(m.Sender)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decode sender of %s: %w", m.ID, err)
	}
	recipient, err := domain.UnmarshalParty(m.Recipient)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decode recipient of %s: %w", m.ID, err)
	}
	return domain.Transaction{
		ID:                      m.ID,
		Direction:               domain.Direction(m.Direction),
		Status:                  domain.TransactionStatus(m.Status),
		AmountFiat:              m.AmountFiat,
		AmountSats:              m.AmountSats,
		FeeFiat:                 m.FeeFiat,
		FeeSats:                 m.FeeSats,
		TotalFiat:               m.TotalFiat,
		TotalSats:               m.TotalSats,
		FeePercentage:           m.FeePercentage,
		ExchangeRate:            m.ExchangeRate,
		RateStale:               m.RateStale,
		Sender:                  sender,
		Recipient:               recipient,
		AssetInvoiceID:          derefString(m.AssetInvoiceID),
		PaymentRequest:          derefString(m.PaymentRequest),
		PaymentHash:             derefString(m.PaymentHash),
		InvoiceExpiresAt:        m.InvoiceExpiresAt,
		FiatCollectionID:        derefString(m.FiatCollectionID),
		FiatCollectionReference: derefString(m.FiatCollectionReference),
		InboundConfirmationRef:  derefString(m.InboundConfirmationRef),
		OutboundRef:             derefString(m.OutboundRef),
		FailureLeg:              domain.FailureLeg(derefString(m.FailureLeg)),
		FailureReason:           derefString(m.FailureReason),
		CompletedAt:             m.CompletedAt,
		Timestamps: domain.Timestamps{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
	}, nil
}

// ToDomainTransactions converts a slice of rows, failing on the first undecodable party.
func ToDomainTransactions(ms []models.Transaction) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(ms))
	for _, m := range ms {
		tx, err := ToDomainTransaction(m)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
