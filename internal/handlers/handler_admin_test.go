package handlers_test

import (
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestAdmin_RequiresToken() {
	w := suite.do(http.MethodGet, "/api/v1/admin/refunds", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/admin/refunds", nil, map[string]string{"Authorization": "Bearer not-a-jwt"})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestDepositLiquidity() {
	suite.liquidity.On("AddLiquidity", mock.Anything, domain.CurrencyBTC, "0.5").Return(nil).Once()
	suite.liquidity.On("GetPool", mock.Anything, domain.CurrencyBTC).Return(&domain.LiquidityPool{
		Currency: domain.CurrencyBTC, Balance: decimal.RequireFromString("1.5"), Reserved: decimal.RequireFromString("0.25"),
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/admin/liquidity/btc/deposit", map[string]any{"amount": "0.5"}, suite.asOperator("op-1"))

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.PoolResponse
	suite.decode(w, &resp)
	suite.Equal("BTC", resp.Currency)
	suite.Equal("1.25", resp.Available.String())
}

func (suite *HandlerTestSuite) TestDepositLiquidity_UnknownCurrency() {
	w := suite.do(http.MethodPost, "/api/v1/admin/liquidity/usd/deposit", map[string]any{"amount": "10"}, suite.asOperator("op-1"))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.liquidity.AssertNotCalled(suite.T(), "AddLiquidity", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCancelTransaction() {
	cancelled := sampleTransaction()
	cancelled.Status = domain.StatusCancelled
	cancelled.FailureLeg = domain.FailureLegOperator
	suite.exchange.On("CancelTransaction", mock.Anything, "tx-1", "op-7", "customer asked").Return(cancelled, nil).Once()
	suite.exchange.On("CancelTransaction", mock.Anything, "tx-2", "op-7", "customer asked").
		Return(nil, apperrors.ErrInvalidTransition).Once()

	w := suite.do(http.MethodPost, "/api/v1/admin/transactions/tx-1/cancel", map[string]any{"reason": "customer asked"}, suite.asOperator("op-7"))
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.TransactionResponse
	suite.decode(w, &resp)
	suite.Equal("cancelled", resp.Status)
	suite.Equal("operator", resp.FailureLeg)

	w = suite.do(http.MethodPost, "/api/v1/admin/transactions/tx-2/cancel", map[string]any{"reason": "customer asked"}, suite.asOperator("op-7"))
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/admin/transactions/tx-2/cancel", map[string]any{}, suite.asOperator("op-7"))
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListAndResolveRefunds() {
	open := domain.RefundOpen
	suite.refunds.On("ListRefunds", mock.Anything, &open).Return([]domain.ManualRefund{{
		ID: "r-1", TransactionID: "tx-9", Currency: domain.CurrencyZMW, Amount: decimal.NewFromInt(105),
		Party: domain.MobileMoneyParty{Phone: "0961234567"}, Status: domain.RefundOpen,
	}}, nil).Once()
	suite.refunds.On("ResolveRefund", mock.Anything, "r-1", "op-2", "paid back via MTN").Return(&domain.ManualRefund{
		ID: "r-1", Status: domain.RefundResolved, ResolvedBy: "op-2",
	}, nil).Once()
	suite.refunds.On("ResolveRefund", mock.Anything, "r-2", "op-2", "paid back via MTN").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/admin/refunds?status=open", nil, suite.asOperator("op-2"))
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var list []dto.RefundResponse
	suite.decode(w, &list)
	suite.Require().Len(list, 1)
	suite.Equal("105", list[0].Amount.String())
	suite.Equal("0961234567", list[0].Party.Phone)

	w = suite.do(http.MethodPost, "/api/v1/admin/refunds/r-1/resolve", map[string]any{"note": "paid back via MTN"}, suite.asOperator("op-2"))
	suite.Equal(http.StatusOK, w.Code)
	var resolved dto.RefundResponse
	suite.decode(w, &resolved)
	suite.Equal("resolved", resolved.Status)

	w = suite.do(http.MethodPost, "/api/v1/admin/refunds/r-2/resolve", map[string]any{"note": "paid back via MTN"}, suite.asOperator("op-2"))
	suite.Equal(http.StatusNotFound, w.Code)
}
