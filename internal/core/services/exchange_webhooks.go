package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/google/uuid"
)

func (s *exchangeService) ProcessWebhook(ctx context.Context, event domain.WebhookEvent) domain.WebhookResult {
	result := s.processWebhook(ctx, event)
	s.metrics.Webhook(string(event.Rail), string(result.Outcome))

	attrs := []any{
		slog.String("rail", string(event.Rail)),
		slog.String("event_type", string(event.EventType)),
		slog.String("reference", event.ExternalReference),
		slog.String("outcome", string(result.Outcome)),
		slog.String("transaction_id", result.TransactionID),
	}
	if result.Reason != "" {
		attrs = append(attrs, slog.String("reason", result.Reason))
	}
	if result.Outcome == domain.WebhookRejected {
		s.LogWarn(ctx, "Webhook rejected", attrs...)
	} else {
		s.LogInfo(ctx, "Webhook processed", attrs...)
	}
	return result
}

func (s *exchangeService) processWebhook(ctx context.Context, event domain.WebhookEvent) domain.WebhookResult {
	if event.Rail != domain.RailAsset && event.Rail != domain.RailFiat {
		return domain.Rejected("", fmt.Sprintf("unknown rail %q", event.Rail))
	}
	if event.ExternalReference == "" && event.AlternateReference == "" {
		return domain.Rejected("", "webhook carries no reference")
	}

	tx, err := s.findWebhookTransaction(ctx, event)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NoOp("", "no transaction matches reference")
		}
		s.LogError(ctx, err, "Failed to look up webhook transaction", slog.String("reference", event.ExternalReference))
		return domain.Rejected("", "transaction lookup failed")
	}

	switch event.EventType {
	case domain.WebhookSucceeded:
		return s.settleInbound(ctx, tx, event)
	case domain.WebhookFailed:
		return s.failInbound(ctx, tx, event)
	case domain.WebhookIgnored:
		return domain.NoOp(tx.ID, fmt.Sprintf("event status %q carries no state change", event.Status))
	default:
		return domain.Rejected(tx.ID, fmt.Sprintf("unknown event type %q", event.EventType))
	}
}

func (s *exchangeService) findWebhookTransaction(ctx context.Context, event domain.WebhookEvent) (*domain.Transaction, error) {
	var lastErr error = apperrors.ErrNotFound
	for _, ref := range []string{event.ExternalReference, event.AlternateReference} {
		if ref == "" {
			continue
		}
		tx, err := s.txRepo.FindTransactionByInboundReference(ctx, event.Rail, ref)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// settleInbound claims the transaction for processing, sends the outbound
// leg and books the result. Only the caller that wins the pending to
// processing transition pays out, so redelivered webhooks are no-ops.
func (s *exchangeService) settleInbound(ctx context.Context, tx *domain.Transaction, event domain.WebhookEvent) domain.WebhookResult {
	if tx.Status != domain.StatusPending {
		return domain.NoOp(tx.ID, fmt.Sprintf("transaction already %s", tx.Status))
	}

	confirmation := event.ConfirmationRef
	if confirmation == "" {
		confirmation = event.ExternalReference
	}
	now := s.Now()
	applied, err := s.txRepo.UpdateTransactionStatus(ctx, tx.ID, domain.StatusUpdate{
		From:                   []domain.TransactionStatus{domain.StatusPending},
		To:                     domain.StatusProcessing,
		InboundConfirmationRef: &confirmation,
		UpdatedAt:              now,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to mark transaction processing", slog.String("transaction_id", tx.ID))
		return domain.Rejected(tx.ID, "failed to record inbound payment")
	}
	if !applied {
		return domain.NoOp(tx.ID, "transaction already left pending")
	}
	tx.Status = domain.StatusProcessing
	tx.InboundConfirmationRef = confirmation
	s.metrics.Transition(string(tx.Direction), string(tx.Status))

	if !event.ConfirmedAmount.IsZero() && !event.ConfirmedAmount.Equal(tx.InboundTotal()) {
		s.LogWarn(ctx, "Confirmed inbound amount differs from quoted total",
			slog.String("transaction_id", tx.ID),
			slog.String("confirmed", event.ConfirmedAmount.String()),
			slog.String("expected", tx.InboundTotal().String()))
	}

	// The outbound leg must finish even if the webhook caller hangs up.
	payCtx := context.WithoutCancel(ctx)
	receipt, payErr := s.sendOutbound(payCtx, tx)
	if payErr != nil {
		return s.failOutbound(payCtx, tx, payErr)
	}
	return s.complete(payCtx, tx, receipt)
}

func (s *exchangeService) sendOutbound(ctx context.Context, tx *domain.Transaction) (*rails.OutboundReceipt, error) {
	railCtx, cancel := context.WithTimeout(ctx, s.railTimeout)
	defer cancel()
	if tx.Direction == domain.DirectionAssetToFiat {
		return s.fiatRail.InitiatePayout(railCtx, tx.AmountFiat, tx.Payee(), tx.Direction.PaymentReference(tx.ID))
	}
	return s.assetRail.PayOutboundInstrument(railCtx, tx.Payee(), tx.AmountSats)
}

// complete books a paid-out transaction: the reservation leaves the reserved
// pool for good and the customer's inbound payment joins the other pool.
func (s *exchangeService) complete(ctx context.Context, tx *domain.Transaction, receipt *rails.OutboundReceipt) domain.WebhookResult {
	now := s.Now()
	outboundRef := ""
	if receipt != nil {
		outboundRef = receipt.ExternalID
	}

	lostRace := false
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		applied, err := s.txRepo.UpdateTransactionStatus(txCtx, tx.ID, domain.StatusUpdate{
			From:        []domain.TransactionStatus{domain.StatusProcessing},
			To:          domain.StatusCompleted,
			OutboundRef: &outboundRef,
			CompletedAt: &now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		if !applied {
			lostRace = true
			return nil
		}
		if err := s.liquidity.Consume(txCtx, tx.Direction.ReservedCurrency(), tx.ReservedAmount()); err != nil {
			return err
		}
		return s.liquidity.AddLiquidity(txCtx, tx.Direction.InboundCurrency(), tx.InboundTotal())
	})
	if err != nil {
		// The customer has been paid; the transaction stays in processing for an operator.
		s.LogError(ctx, err, "Outbound leg paid but settlement could not be booked",
			slog.String("transaction_id", tx.ID),
			slog.String("outbound_ref", outboundRef))
		return domain.Rejected(tx.ID, "settlement bookkeeping failed")
	}
	if lostRace {
		s.LogError(ctx, apperrors.ErrDataIntegrity, "Transaction left processing while its outbound leg was in flight",
			slog.String("transaction_id", tx.ID),
			slog.String("outbound_ref", outboundRef))
		return domain.Rejected(tx.ID, "transaction changed state during settlement")
	}

	tx.Status = domain.StatusCompleted
	tx.OutboundRef = outboundRef
	tx.CompletedAt = &now
	tx.UpdatedAt = now
	s.metrics.Transition(string(tx.Direction), string(tx.Status))
	s.publish(ctx, transactionEvent(gateways.EventTransactionCompleted, tx, now))
	return domain.Applied(tx.ID, tx.Status)
}

// failOutbound marks the transaction failed, releases its reservation and
// queues a manual refund of what the customer paid in.
func (s *exchangeService) failOutbound(ctx context.Context, tx *domain.Transaction, payErr error) domain.WebhookResult {
	now := s.Now()
	reason := "outbound payment failed: " + payErr.Error()
	s.LogError(ctx, payErr, "Outbound leg failed, queueing manual refund", slog.String("transaction_id", tx.ID))

	party := tx.Payer()
	if party == nil {
		party = tx.Payee()
	}
	refund := domain.ManualRefund{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Currency:      tx.Direction.InboundCurrency(),
		Amount:        tx.InboundTotal(),
		Party:         party,
		Reason:        reason,
		Status:        domain.RefundOpen,
		Timestamps:    domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}

	applied, err := s.abandon(ctx, tx, []domain.TransactionStatus{domain.StatusProcessing}, domain.StatusFailed,
		domain.FailureLegOutbound, reason, now, func(txCtx context.Context) error {
			return s.refundRepo.SaveRefund(txCtx, refund)
		})
	if err != nil {
		s.LogError(ctx, err, "Failed to record outbound failure", slog.String("transaction_id", tx.ID))
		return domain.Rejected(tx.ID, "failed to record outbound failure")
	}
	if !applied {
		return domain.NoOp(tx.ID, "transaction already left processing")
	}

	s.metrics.RefundQueued()
	s.publish(ctx, transactionEvent(gateways.EventTransactionFailed, tx, now))
	s.publish(ctx, gateways.Event{
		Type:          gateways.EventRefundRequested,
		TransactionID: tx.ID,
		Direction:     tx.Direction,
		Status:        tx.Status,
		Amount:        refund.Amount,
		Currency:      refund.Currency,
		Reason:        reason,
		OccurredAt:    now,
	})
	return domain.Applied(tx.ID, tx.Status)
}

// failInbound handles a rail reporting that the customer's payment did not
// happen, or was reversed after confirmation. Any non-terminal transaction
// fails and gives its reservation back; an outbound leg still in flight will
// then lose its completion claim.
func (s *exchangeService) failInbound(ctx context.Context, tx *domain.Transaction, event domain.WebhookEvent) domain.WebhookResult {
	if tx.Status.IsTerminal() {
		return domain.NoOp(tx.ID, fmt.Sprintf("transaction already %s", tx.Status))
	}
	reason := "inbound payment failed"
	if event.Status != "" {
		reason += ": " + event.Status
	}
	now := s.Now()
	applied, err := s.abandon(ctx, tx, domain.SourcesFor(domain.StatusFailed), domain.StatusFailed,
		domain.FailureLegInbound, reason, now, nil)
	if err != nil {
		s.LogError(ctx, err, "Failed to record inbound failure", slog.String("transaction_id", tx.ID))
		return domain.Rejected(tx.ID, "failed to record inbound failure")
	}
	if !applied {
		return domain.NoOp(tx.ID, "transaction already reached a final state")
	}
	s.publish(ctx, transactionEvent(gateways.EventTransactionFailed, tx, now))
	return domain.Applied(tx.ID, tx.Status)
}
