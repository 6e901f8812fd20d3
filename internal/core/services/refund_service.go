package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
)

type refundService struct {
	BaseService
	repo portsrepo.RefundRepositoryFacade
}

// NewRefundService creates the manual refund queue service.
func NewRefundService(repo portsrepo.RefundRepositoryFacade, now func() time.Time) portssvc.RefundSvc {
	return &refundService{BaseService: BaseService{now: now}, repo: repo}
}

var _ portssvc.RefundSvc = (*refundService)(nil)

func (s *refundService) ListRefunds(ctx context.Context, status *domain.RefundStatus) ([]domain.ManualRefund, error) {
	if status != nil && *status != domain.RefundOpen && *status != domain.RefundResolved {
		return nil, fmt.Errorf("%w: unknown refund status %q", apperrors.ErrValidation, *status)
	}
	refunds, err := s.repo.ListRefunds(ctx, status)
	if err != nil {
		s.LogError(ctx, err, "Failed to list refunds")
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return refunds, nil
}

func (s *refundService) ResolveRefund(ctx context.Context, id, operatorID, note string) (*domain.ManualRefund, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("%w: a resolution note is required", apperrors.ErrValidation)
	}
	if err := s.repo.ResolveRefund(ctx, id, operatorID, note, s.Now()); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("open refund " + id)
		}
		s.LogError(ctx, err, "Failed to resolve refund", slog.String("refund_id", id))
		return nil, fmt.Errorf("failed to resolve refund: %w", err)
	}
	s.LogInfo(ctx, "Refund resolved", slog.String("refund_id", id), slog.String("operator_id", operatorID))

	refund, err := s.repo.FindRefundByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload refund: %w", err)
	}
	return refund, nil
}
