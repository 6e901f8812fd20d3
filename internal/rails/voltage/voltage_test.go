package voltage_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/voltage"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11/bolt11test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	pr  string
	err error
}

func (s stubResolver) PaymentRequest(context.Context, domain.Party, int64) (string, error) {
	return s.pr, s.err
}

func newClient(url string, resolver voltage.DestinationResolver) *voltage.Client {
	return voltage.NewClient(railhttp.New(railhttp.Config{Rail: voltage.RailName, BaseURL: url, APIKey: "key"}), resolver, time.Hour)
}

func TestCreateInboundInstrument(t *testing.T) {
	expires := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 6999, body["amount"])
		assert.EqualValues(t, 3600, body["expiry"])
		assert.Equal(t, "BTC to ZMW exchange: 100.00 ZMW", body["description"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "inv-1", "payment_request": "lnbc1", "payment_hash": "hash-1", "expires_at": expires,
		})
	}))
	defer srv.Close()

	inv, err := newClient(srv.URL, stubResolver{}).CreateInboundInstrument(context.Background(), 6999, "BTC to ZMW exchange: 100.00 ZMW")

	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ExternalID)
	assert.Equal(t, "lnbc1", inv.PaymentRequest)
	assert.Equal(t, "hash-1", inv.PaymentHash)
	assert.True(t, inv.ExpiresAt.Equal(expires))
}

func TestCreateInboundInstrument_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, stubResolver{}).CreateInboundInstrument(context.Background(), 1000, "memo")

	assert.ErrorIs(t, err, apperrors.ErrRail)
}

func TestPayOutboundInstrument(t *testing.T) {
	invoice := bolt11test.NewInvoice(t, 6666)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, invoice, body["payment_request"])
		assert.NotContains(t, body, "amount")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pay-1", "status": "succeeded"})
	}))
	defer srv.Close()

	receipt, err := newClient(srv.URL, stubResolver{pr: invoice}).
		PayOutboundInstrument(context.Background(), domain.LightningAddressParty{Address: "a@b.c"}, 6666)

	require.NoError(t, err)
	assert.Equal(t, "pay-1", receipt.ExternalID)
}

func TestPayOutboundInstrument_AmountlessInvoiceSendsAmount(t *testing.T) {
	invoice := bolt11test.NewInvoice(t, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 6666, body["amount"])
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pay-3", "status": "succeeded"})
	}))
	defer srv.Close()

	receipt, err := newClient(srv.URL, stubResolver{pr: invoice}).
		PayOutboundInstrument(context.Background(), domain.LightningInvoiceParty{Invoice: invoice}, 6666)

	require.NoError(t, err)
	assert.Equal(t, "pay-3", receipt.ExternalID)
}

func TestPayOutboundInstrument_RefusesInvoiceForOtherAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("payment must not be attempted")
	}))
	defer srv.Close()
	invoice := bolt11test.NewInvoice(t, 250_000)

	receipt, err := newClient(srv.URL, stubResolver{pr: invoice}).
		PayOutboundInstrument(context.Background(), domain.LightningInvoiceParty{Invoice: invoice}, 6666)

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, apperrors.ErrRail)
	assert.ErrorIs(t, err, bolt11.ErrAmountMismatch)
}

func TestPayOutboundInstrument_RefusesUndecodableInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("payment must not be attempted")
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, stubResolver{pr: "lnbc-garbage"}).
		PayOutboundInstrument(context.Background(), domain.LightningAddressParty{Address: "a@b.c"}, 6666)

	assert.ErrorIs(t, err, apperrors.ErrRail)
}

func TestPayOutboundInstrument_ResolverFailureSkipsPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("payment must not be attempted")
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, stubResolver{err: errors.New("no route")}).
		PayOutboundInstrument(context.Background(), domain.LightningAddressParty{Address: "a@b.c"}, 6666)

	assert.Error(t, err)
}

func TestPayOutboundInstrument_FailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pay-2", "status": "failed"})
	}))
	defer srv.Close()
	invoice := bolt11test.NewInvoice(t, 1)

	_, err := newClient(srv.URL, stubResolver{pr: invoice}).
		PayOutboundInstrument(context.Background(), domain.LightningInvoiceParty{Invoice: invoice}, 1)

	assert.ErrorIs(t, err, apperrors.ErrRail)
}

func TestLookupInboundInstrument(t *testing.T) {
	statuses := map[string]string{"inv-paid": "paid", "inv-open": "pending", "inv-expired": "expired"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		id := strings.TrimPrefix(r.URL.Path, "/invoices/")
		status, ok := statuses[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": status, "amount": 6999, "amount_paid": 6999})
	}))
	defer srv.Close()
	c := newClient(srv.URL, stubResolver{})

	paid, err := c.LookupInboundInstrument(context.Background(), "inv-paid")
	require.NoError(t, err)
	assert.Equal(t, rails.InboundSettled, paid.State)
	assert.Equal(t, int64(6999), paid.AmountSats)

	open, err := c.LookupInboundInstrument(context.Background(), "inv-open")
	require.NoError(t, err)
	assert.Equal(t, rails.InboundOpen, open.State)

	expired, err := c.LookupInboundInstrument(context.Background(), "inv-expired")
	require.NoError(t, err)
	assert.Equal(t, rails.InboundCanceled, expired.State)

	_, err = c.LookupInboundInstrument(context.Background(), "inv-missing")
	assert.ErrorIs(t, err, apperrors.ErrRail)
}
