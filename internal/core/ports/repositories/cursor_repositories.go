package repositories

import (
	"context"
	"time"
)

// CursorRepositoryFacade stores resume positions of rail event streams, such
// as the settle index of a Lightning node's invoice subscription.
type CursorRepositoryFacade interface {
	// GetCursor returns the stored position for name, or 0 if none is stored.
	GetCursor(ctx context.Context, name string) (uint64, error)
	// SaveCursor records value for name. Positions only move forward; a value
	// lower than the stored one is ignored.
	SaveCursor(ctx context.Context, name string, value uint64, at time.Time) error
}
