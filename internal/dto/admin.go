package dto

import (
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DepositLiquidityRequest tops up a pool from treasury.
type DepositLiquidityRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CancelTransactionRequest records why an operator cancelled.
type CancelTransactionRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// ResolveRefundRequest closes a refund ticket.
type ResolveRefundRequest struct {
	Note string `json:"note" binding:"required,min=3,max=1000"`
}

// ListRefundsParams filters the refund queue.
type ListRefundsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=open resolved"`
}

// RefundResponse is the operator view of a manual refund.
type RefundResponse struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	Party          *PartyInfo      `json:"party,omitempty"`
	Reason         string          `json:"reason"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy     string          `json:"resolved_by,omitempty"`
	ResolutionNote string          `json:"resolution_note,omitempty"`
}

// ToRefundResponse converts a manual refund to its response DTO.
func ToRefundResponse(r *domain.ManualRefund) RefundResponse {
	return RefundResponse{
		ID:             r.ID,
		TransactionID:  r.TransactionID,
		Currency:       string(r.Currency),
		Amount:         r.Amount,
		Party:          FromDomainParty(r.Party),
		Reason:         r.Reason,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
		ResolvedBy:     r.ResolvedBy,
		ResolutionNote: r.ResolutionNote,
	}
}

// ToRefundListResponse converts a slice of refunds.
func ToRefundListResponse(refunds []domain.ManualRefund) []RefundResponse {
	out := make([]RefundResponse, len(refunds))
	for i := range refunds {
		out[i] = ToRefundResponse(&refunds[i])
	}
	return out
}
