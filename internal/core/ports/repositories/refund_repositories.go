package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
)

// RefundReader defines read operations for the manual refund queue.
type RefundReader interface {
	FindRefundByID(ctx context.Context, id string) (*domain.ManualRefund, error)
	// ListRefunds returns refunds oldest first; a nil status lists all.
	ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error)
}

// RefundWriter defines write operations for the manual refund queue.
type RefundWriter interface {
	SaveRefund(ctx context.Context, refund domain.ManualRefund) error
	// ResolveRefund marks an open refund resolved. Returns ErrNotFound if no
	// open refund has that id.
	ResolveRefund(ctx context.Context, id, resolvedBy, note string, at time.Time) error
}

// RefundRepositoryFacade combines all refund repository interfaces.
type RefundRepositoryFacade interface {
	RefundReader
	RefundWriter
}
