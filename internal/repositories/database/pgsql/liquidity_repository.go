package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxLiquidityRepository keeps one row per currency. Every mutation is a
// single guarded UPDATE, so concurrent reservations serialize on the row lock
// and can never drive available liquidity below zero.
type PgxLiquidityRepository struct {
	BaseRepository
}

func newPgxLiquidityRepository(pool *pgxpool.Pool) *PgxLiquidityRepository {
	return &PgxLiquidityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LiquidityRepositoryFacade = (*PgxLiquidityRepository)(nil)

const selectPoolQuery = `SELECT currency, balance, reserved, updated_at FROM liquidity_pools`

func (r *PgxLiquidityRepository) FindPool(ctx context.Context, currency domain.Currency) (*domain.LiquidityPool, error) {
	rows, err := r.conn(ctx).Query(ctx, selectPoolQuery+` WHERE currency = $1`, string(currency))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query liquidity pool", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.LiquidityPool])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("liquidity pool " + string(currency))
		}
		return nil, apperrors.NewAppError(500, "failed to scan liquidity pool", err)
	}
	pool := mapping.ToDomainLiquidityPool(m)
	return &pool, nil
}

func (r *PgxLiquidityRepository) ListPools(ctx context.Context) ([]domain.LiquidityPool, error) {
	rows, err := r.conn(ctx).Query(ctx, selectPoolQuery+` ORDER BY currency`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query liquidity pools", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LiquidityPool])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect liquidity pools", err)
	}
	return mapping.ToDomainLiquidityPools(ms), nil
}

func (r *PgxLiquidityRepository) Reserve(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	cmdTag, err := r.conn(ctx).Exec(ctx, `
		UPDATE liquidity_pools
		SET reserved = reserved + $2, updated_at = NOW()
		WHERE currency = $1 AND balance - reserved >= $2`,
		string(currency), amount,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve %s %s: %w", amount, currency, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.missingOr(ctx, currency, fmt.Errorf("%w: %s pool cannot cover %s", apperrors.ErrInsufficientLiquidity, currency, amount))
	}
	return nil
}

func (r *PgxLiquidityRepository) Release(ctx context.Context, currency domain.Currency, amount decimal.Decimal) (bool, error) {
	var clamped bool
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE liquidity_pools p
		SET reserved = GREATEST(p.reserved - $2, 0), updated_at = NOW()
		FROM (SELECT reserved FROM liquidity_pools WHERE currency = $1 FOR UPDATE) old
		WHERE p.currency = $1
		RETURNING old.reserved < $2`,
		string(currency), amount,
	).Scan(&clamped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewDataIntegrityError("liquidity pool " + string(currency) + " is missing")
		}
		return false, fmt.Errorf("failed to release %s %s: %w", amount, currency, err)
	}
	return clamped, nil
}

func (r *PgxLiquidityRepository) Consume(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	cmdTag, err := r.conn(ctx).Exec(ctx, `
		UPDATE liquidity_pools
		SET balance = balance - $2, reserved = reserved - $2, updated_at = NOW()
		WHERE currency = $1 AND reserved >= $2 AND balance >= $2`,
		string(currency), amount,
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s %s: %w", amount, currency, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.missingOr(ctx, currency, apperrors.NewDataIntegrityError(
			fmt.Sprintf("%s pool holds less than %s in reserve", currency, amount)))
	}
	return nil
}

func (r *PgxLiquidityRepository) Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	cmdTag, err := r.conn(ctx).Exec(ctx, `
		UPDATE liquidity_pools
		SET balance = balance + $2, updated_at = NOW()
		WHERE currency = $1`,
		string(currency), amount,
	)
	if err != nil {
		return fmt.Errorf("failed to add %s %s: %w", amount, currency, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewDataIntegrityError("liquidity pool " + string(currency) + " is missing")
	}
	return nil
}

// missingOr distinguishes a guard failure from a missing pool row.
func (r *PgxLiquidityRepository) missingOr(ctx context.Context, currency domain.Currency, guardErr error) error {
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM liquidity_pools WHERE currency = $1)`, string(currency)).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check liquidity pool %s: %w", currency, err)
	}
	if !exists {
		return apperrors.NewDataIntegrityError("liquidity pool " + string(currency) + " is missing")
	}
	return guardErr
}
