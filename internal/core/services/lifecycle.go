package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
)

// defaultPublishTimeout bounds how long a state change waits on the event bus.
const defaultPublishTimeout = 2 * time.Second

// lifecycle holds the pieces shared by everything that moves a transaction
// to a terminal state: the status guard, the pool ledger and the event bus.
type lifecycle struct {
	txManager portsrepo.TransactionManager
	txRepo    portsrepo.TransactionRepositoryFacade
	liquidity portssvc.LiquidityWriterSvc
	events    gateways.EventPublisher
	metrics   *observability.Metrics

	publishTimeout time.Duration
}

// abandon moves tx from one of from to a failed or cancelled state and
// releases its reservation in the same unit of work. extra, when set, runs
// inside that unit of work after the release. applied is false when the
// transaction had already left every status in from.
func (l *lifecycle) abandon(ctx context.Context, tx *domain.Transaction, from []domain.TransactionStatus, to domain.TransactionStatus,
	leg domain.FailureLeg, reason string, now time.Time, extra func(ctx context.Context) error) (bool, error) {
	applied := false
	err := l.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		ok, err := l.txRepo.UpdateTransactionStatus(txCtx, tx.ID, domain.StatusUpdate{
			From:          from,
			To:            to,
			FailureLeg:    &leg,
			FailureReason: &reason,
			UpdatedAt:     now,
		})
		if err != nil || !ok {
			return err
		}
		if err := l.liquidity.Release(txCtx, tx.Direction.ReservedCurrency(), tx.ReservedAmount()); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(txCtx); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		tx.Status = to
		tx.FailureLeg = leg
		tx.FailureReason = reason
		tx.UpdatedAt = now
		l.metrics.Transition(string(tx.Direction), string(to))
	}
	return applied, nil
}

// publish emits event on the bus. Failures are logged and otherwise ignored.
// The publish outlives a cancelled caller but never runs past publishTimeout.
func (l *lifecycle) publish(ctx context.Context, event gateways.Event) {
	if l.events == nil {
		return
	}
	timeout := l.publishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	err := l.events.Publish(pubCtx, event)
	l.metrics.EventPublished(string(event.Type), err)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("transaction_id", event.TransactionID),
			slog.String("error", err.Error()))
	}
}

func transactionEvent(eventType gateways.EventType, tx *domain.Transaction, now time.Time) gateways.Event {
	return gateways.Event{
		Type:          eventType,
		TransactionID: tx.ID,
		Direction:     tx.Direction,
		Status:        tx.Status,
		Amount:        tx.AmountFiat,
		Currency:      domain.CurrencyZMW,
		Reason:        tx.FailureReason,
		OccurredAt:    now,
	}
}
