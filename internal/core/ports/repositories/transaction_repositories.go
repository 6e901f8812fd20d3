package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
)

// TransactionReader defines read operations for exchange transactions.
type TransactionReader interface {
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	// FindTransactionByInboundReference matches a webhook reference against the
	// inbound identifiers recorded for rail. Returns ErrNotFound when unmatched.
	FindTransactionByInboundReference(ctx context.Context, rail domain.Rail, reference string) (*domain.Transaction, error)
	// ListTransactions returns a page, newest first, and the total matching count.
	ListTransactions(ctx context.Context, filter domain.ListTransactionsFilter) ([]domain.Transaction, int, error)
	// ListStalePending returns pending transactions created before cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for exchange transactions.
type TransactionWriter interface {
	// SaveTransaction inserts a new transaction. Returns ErrDuplicate if an
	// inbound rail reference is already recorded.
	SaveTransaction(ctx context.Context, tx domain.Transaction) error
	// UpdateTransactionStatus applies update only if the current status is in
	// update.From. applied is false when another writer got there first.
	UpdateTransactionStatus(ctx context.Context, id string, update domain.StatusUpdate) (applied bool, err error)
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
