package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRefundRepository stores the manual refund queue.
type PgxRefundRepository struct {
	BaseRepository
}

func newPgxRefundRepository(pool *pgxpool.Pool) *PgxRefundRepository {
	return &PgxRefundRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RefundRepositoryFacade = (*PgxRefundRepository)(nil)

const refundColumns = `id, transaction_id, currency, amount, party, reason, status,
	resolved_at, resolved_by, resolution_note, created_at, updated_at`

func (r *PgxRefundRepository) SaveRefund(ctx context.Context, refund domain.ManualRefund) error {
	m, err := mapping.ToModelRefund(refund)
	if err != nil {
		return fmt.Errorf("failed to map refund %s: %w", refund.ID, err)
	}
	_, err = r.conn(ctx).Exec(ctx, `INSERT INTO manual_refunds (`+refundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.TransactionID, m.Currency, m.Amount, m.Party, m.Reason, m.Status,
		m.ResolvedAt, m.ResolvedBy, m.ResolutionNote, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: refund for transaction %s already queued", apperrors.ErrDuplicate, refund.TransactionID)
		}
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	return nil
}

func (r *PgxRefundRepository) FindRefundByID(ctx context.Context, id string) (*domain.ManualRefund, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+refundColumns+` FROM manual_refunds WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query refund: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ManualRefund])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}
	refund, err := mapping.ToDomainRefund(m)
	if err != nil {
		return nil, apperrors.NewDataIntegrityError(err.Error())
	}
	return &refund, nil
}

func (r *PgxRefundRepository) ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error) {
	query := `SELECT ` + refundColumns + ` FROM manual_refunds`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ManualRefund])
	if err != nil {
		return nil, fmt.Errorf("failed to collect refunds: %w", err)
	}
	refunds := make([]domain.ManualRefund, 0, len(ms))
	for _, m := range ms {
		refund, err := mapping.ToDomainRefund(m)
		if err != nil {
			return nil, apperrors.NewDataIntegrityError(err.Error())
		}
		refunds = append(refunds, refund)
	}
	return refunds, nil
}

func (r *PgxRefundRepository) ResolveRefund(ctx context.Context, id, resolvedBy, note string, at time.Time) error {
	cmdTag, err := r.conn(ctx).Exec(ctx, `
		UPDATE manual_refunds
		SET status = $2, resolved_at = $3, resolved_by = $4, resolution_note = $5, updated_at = $3
		WHERE id = $1 AND status = $6`,
		id, string(domain.RefundResolved), at, resolvedBy, note, string(domain.RefundOpen),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve refund %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no open refund %s", apperrors.ErrNotFound, id)
	}
	return nil
}
