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
)

// PgxExchangeRateRepository implements the repository interface for exchange rates using pgx.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new repository for exchange rate data.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxExchangeRateRepository implements portsrepo.ExchangeRateRepositoryFacade
var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

// SaveExchangeRate saves a new exchange rate observation.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO exchange_rates (id, rate, source, fetched_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.Rate, m.Source, m.FetchedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exchange rate %s", apperrors.ErrDuplicate, m.ID)
		}
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}
	return nil
}

// FindLatestExchangeRate returns the most recently fetched rate.
func (r *PgxExchangeRateRepository) FindLatestExchangeRate(ctx context.Context) (*domain.ExchangeRate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, rate, source, fetched_at FROM exchange_rates ORDER BY fetched_at DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest exchange rate: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ExchangeRate])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan latest exchange rate: %w", err)
	}
	rate := mapping.ToDomainExchangeRate(m)
	return &rate, nil
}
