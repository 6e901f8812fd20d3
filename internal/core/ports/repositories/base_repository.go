package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically.
// Repositories called with the ctx passed to fn join the same database
// transaction; if fn returns an error every write inside it is rolled back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
