package services

import (
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type feeService struct {
	schedule accounting.FeeSchedule
}

// NewFeeService creates a fee calculator for schedule.
func NewFeeService(schedule accounting.FeeSchedule) (portssvc.FeeSvc, error) {
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee schedule: %w", err)
	}
	return &feeService{schedule: schedule}, nil
}

var _ portssvc.FeeSvc = (*feeService)(nil)

func (s *feeService) ComputeFee(principal, rate decimal.Decimal) (*domain.FeeCalculation, error) {
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if !principal.Equal(principal.Truncate(domain.FiatPrecision)) {
		return nil, fmt.Errorf("%w: amount must have at most %d decimal places", apperrors.ErrValidation, domain.FiatPrecision)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}

	calc := accounting.CalculateFee(principal, rate, s.schedule)
	if calc.AmountSats <= 0 {
		return nil, fmt.Errorf("%w: amount %s ZMW is below one satoshi at rate %s", apperrors.ErrValidation, principal.StringFixed(domain.FiatPrecision), rate)
	}
	return &calc, nil
}
