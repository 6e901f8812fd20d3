package handlers_test

import (
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestVoltageWebhook_Acknowledged() {
	suite.exchange.On("ProcessWebhook", mock.Anything, mock.MatchedBy(func(e domain.WebhookEvent) bool {
		return e.Rail == domain.RailAsset && e.EventType == domain.WebhookSucceeded &&
			e.ExternalReference == "inv-1" && e.ConfirmedAmount.String() == "0.00006999"
	})).Return(domain.Applied("tx-1", domain.StatusCompleted)).Once()

	w := suite.do(http.MethodPost, "/webhooks/voltage", map[string]any{
		"event":        "invoice.paid",
		"invoice_id":   "inv-1",
		"payment_hash": "hash-1",
		"amount":       6999,
		"status":       "paid",
	}, nil)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var ack dto.WebhookAckResponse
	suite.decode(w, &ack)
	suite.True(ack.Received)
	suite.Equal(domain.WebhookApplied, ack.Result.Outcome)
	suite.Equal(domain.StatusCompleted, ack.Result.Status)
}

func (suite *HandlerTestSuite) TestVoltageWebhook_NoOpIsStillOK() {
	suite.exchange.On("ProcessWebhook", mock.Anything, mock.Anything).
		Return(domain.NoOp("tx-1", "transaction already completed")).Once()

	w := suite.do(http.MethodPost, "/webhooks/voltage", map[string]any{"event": "invoice.paid", "invoice_id": "inv-1"}, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"outcome":"noop"`)
}

func (suite *HandlerTestSuite) TestVoltageWebhook_Malformed() {
	w := suite.do(http.MethodPost, "/webhooks/voltage", `{"event":`, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/webhooks/voltage", map[string]any{"event": "invoice.paid"}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestLipilaWebhook_Signature() {
	body := []byte(`{"event":"transaction.failed","transaction_id":"col-1","amount":105,"status":"failed","reference":"ref-1"}`)
	suite.exchange.On("ProcessWebhook", mock.Anything, mock.MatchedBy(func(e domain.WebhookEvent) bool {
		return e.Rail == domain.RailFiat && e.EventType == domain.WebhookFailed &&
			e.ExternalReference == "col-1" && e.AlternateReference == "ref-1"
	})).Return(domain.Applied("tx-3", domain.StatusFailed)).Once()

	w := suite.do(http.MethodPost, "/webhooks/lipila", body, map[string]string{middleware.WebhookSignatureHeader: "deadbeef"})
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPost, "/webhooks/lipila", body, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	sig := middleware.SignWebhookBody(lipilaSecret, body)
	w = suite.do(http.MethodPost, "/webhooks/lipila", body, map[string]string{middleware.WebhookSignatureHeader: "sha256=" + sig})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"status":"failed"`)
}
