package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxCursorRepository stores stream resume positions in rail_cursors.
type PgxCursorRepository struct {
	BaseRepository
}

func newPgxCursorRepository(pool *pgxpool.Pool) portsrepo.CursorRepositoryFacade {
	return &PgxCursorRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.CursorRepositoryFacade = (*PgxCursorRepository)(nil)

func (r *PgxCursorRepository) GetCursor(ctx context.Context, name string) (uint64, error) {
	var value int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT position FROM rail_cursors WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor %s: %w", name, err)
	}
	return uint64(value), nil
}

// SaveCursor upserts the position, keeping the larger of the stored and new values.
func (r *PgxCursorRepository) SaveCursor(ctx context.Context, name string, value uint64, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rail_cursors (name, position, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET position = GREATEST(rail_cursors.position, EXCLUDED.position), updated_at = EXCLUDED.updated_at`,
		name, int64(value), at)
	if err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", name, err)
	}
	return nil
}
