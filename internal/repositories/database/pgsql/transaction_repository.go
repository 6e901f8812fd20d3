package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionRepository implements the repository for exchange transactions.
type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `id, direction, status, amount_fiat, amount_sats, fee_fiat, fee_sats,
	total_fiat, total_sats, fee_percentage, exchange_rate, rate_stale, sender, recipient,
	asset_invoice_id, payment_request, payment_hash, invoice_expires_at,
	fiat_collection_id, fiat_collection_reference,
	inbound_confirmation_ref, outbound_ref, failure_leg, failure_reason, completed_at,
	created_at, updated_at`

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	m, err := mapping.ToModelTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to map transaction %s: %w", tx.ID, err)
	}
	query := `INSERT INTO exchange_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err = r.conn(ctx).Exec(ctx, query,
		m.ID, m.Direction, m.Status, m.AmountFiat, m.AmountSats, m.FeeFiat, m.FeeSats,
		m.TotalFiat, m.TotalSats, m.FeePercentage, m.ExchangeRate, m.RateStale, m.Sender, m.Recipient,
		m.AssetInvoiceID, m.PaymentRequest, m.PaymentHash, m.InvoiceExpiresAt,
		m.FiatCollectionID, m.FiatCollectionReference,
		m.InboundConfirmationRef, m.OutboundRef, m.FailureLeg, m.FailureReason, m.CompletedAt,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s reuses an inbound rail reference", apperrors.ErrDuplicate, tx.ID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *PgxTransactionRepository) FindTransactionByInboundReference(ctx context.Context, rail domain.Rail, reference string) (*domain.Transaction, error) {
	switch rail {
	case domain.RailAsset:
		return r.findOne(ctx, `WHERE direction = $1 AND (asset_invoice_id = $2 OR payment_hash = $2)`,
			string(domain.DirectionAssetToFiat), reference)
	case domain.RailFiat:
		return r.findOne(ctx, `WHERE direction = $1 AND (fiat_collection_id = $2 OR fiat_collection_reference = $2)`,
			string(domain.DirectionFiatToAsset), reference)
	default:
		return nil, apperrors.NewValidationError("unknown rail " + string(rail))
	}
}

func (r *PgxTransactionRepository) findOne(ctx context.Context, where string, args ...any) (*domain.Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+transactionColumns+` FROM exchange_transactions `+where+` LIMIT 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx, err := mapping.ToDomainTransaction(m)
	if err != nil {
		return nil, apperrors.NewDataIntegrityError(err.Error())
	}
	return &tx, nil
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*filter.Status))
		argIdx++
	}
	if filter.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argIdx))
		args = append(args, string(*filter.Direction))
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exchange_transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM exchange_transactions%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to collect transactions: %w", err)
	}
	txs, err := mapping.ToDomainTransactions(ms)
	if err != nil {
		return nil, 0, apperrors.NewDataIntegrityError(err.Error())
	}
	return txs, total, nil
}

func (r *PgxTransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+transactionColumns+` FROM exchange_transactions
		WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`,
		string(domain.StatusPending), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale transactions: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to collect stale transactions: %w", err)
	}
	txs, err := mapping.ToDomainTransactions(ms)
	if err != nil {
		return nil, apperrors.NewDataIntegrityError(err.Error())
	}
	return txs, nil
}

// UpdateTransactionStatus is a compare-and-set on status. Nil fields in
// update keep their stored value.
func (r *PgxTransactionRepository) UpdateTransactionStatus(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	if len(update.From) == 0 {
		return false, apperrors.NewValidationError("status update needs at least one source status")
	}
	from := make([]string, len(update.From))
	for i, s := range update.From {
		from[i] = string(s)
	}
	var leg *string
	if update.FailureLeg != nil {
		s := string(*update.FailureLeg)
		leg = &s
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, `
		UPDATE exchange_transactions SET
			status = $3,
			inbound_confirmation_ref = COALESCE($4, inbound_confirmation_ref),
			outbound_ref = COALESCE($5, outbound_ref),
			failure_leg = COALESCE($6, failure_leg),
			failure_reason = COALESCE($7, failure_reason),
			completed_at = COALESCE($8, completed_at),
			updated_at = $9
		WHERE id = $1 AND status = ANY($2)`,
		id, from, string(update.To),
		update.InboundConfirmationRef, update.OutboundRef, leg, update.FailureReason, update.CompletedAt,
		update.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction %s to %s: %w", id, update.To, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
