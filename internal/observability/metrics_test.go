package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.Reservation("ZMW", "ok")
		m.ReleaseClamped("ZMW")
		m.Transition("asset_to_fiat", "completed")
		m.Webhook("fiat", "applied")
		m.RailRequest("lipila", "payout", time.Second, errors.New("boom"))
		m.RateFallback()
		m.RateCacheHit()
		m.RateCacheMiss()
		m.PoolAvailable("BTC", decimal.NewFromInt(1))
		m.RefundQueued()
		m.EventPublished("transaction.created", nil)
	})
}

func TestMetricsExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	m.Reservation("ZMW", "insufficient")
	m.RateFallback()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	text := string(body)
	assert.Contains(t, text, `exchange_liquidity_reservations_total{currency="ZMW",outcome="insufficient"} 1`)
	assert.Contains(t, text, `exchange_rate_fallback_total 1`)
	assert.Contains(t, text, `http_requests_total{route="/ping",status="200"} 1`)
}

func TestNewMetricsCanBeBuiltTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics()
		observability.NewMetrics()
	})
}
