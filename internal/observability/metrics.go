package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics holds the exchange's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can be built without it in tests.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	reservations      *prometheus.CounterVec
	releasesClamped   *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	webhooks          *prometheus.CounterVec
	railDuration      *prometheus.HistogramVec
	rateFallbacks     prometheus.Counter
	rateCacheHits     prometheus.Counter
	rateCacheMisses   prometheus.Counter
	poolAvailable     *prometheus.GaugeVec
	refundsQueued     prometheus.Counter
	eventsPublished   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_liquidity_reservations_total",
			Help: "Reservation attempts by currency and outcome.",
		}, []string{"currency", "outcome"}),
		releasesClamped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_liquidity_release_clamped_total",
			Help: "Releases that asked for more than was reserved.",
		}, []string{"currency"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_transaction_transitions_total",
			Help: "Applied transaction status transitions by direction and target status.",
		}, []string{"direction", "status"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_webhooks_total",
			Help: "Processed rail webhooks by rail and outcome.",
		}, []string{"rail", "outcome"}),
		railDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exchange_rail_request_duration_seconds",
			Help:    "Latency of calls to external payment rails.",
			Buckets: prometheus.DefBuckets,
		}, []string{"rail", "operation", "result"}),
		rateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_rate_fallback_total",
			Help: "Times a stale or configured rate was used because the upstream failed.",
		}),
		rateCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_rate_cache_hits_total",
			Help: "Rate quotes served from the shared cache.",
		}),
		rateCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_rate_cache_misses_total",
			Help: "Rate lookups that missed the shared cache.",
		}),
		poolAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exchange_liquidity_available",
			Help: "Last observed available liquidity per pool, in major units.",
		}, []string{"currency"}),
		refundsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_manual_refunds_queued_total",
			Help: "Manual refunds created after an outbound leg failed.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_events_published_total",
			Help: "Lifecycle events handed to the event bus by result.",
		}, []string{"type", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.reservations,
		m.releasesClamped,
		m.transitions,
		m.webhooks,
		m.railDuration,
		m.rateFallbacks,
		m.rateCacheHits,
		m.rateCacheMisses,
		m.poolAvailable,
		m.refundsQueued,
		m.eventsPublished,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Reservation(currency, outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(currency, outcome).Inc()
}

func (m *Metrics) ReleaseClamped(currency string) {
	if m == nil {
		return
	}
	m.releasesClamped.WithLabelValues(currency).Inc()
}

func (m *Metrics) Transition(direction, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(direction, status).Inc()
}

func (m *Metrics) Webhook(rail, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(rail, outcome).Inc()
}

func (m *Metrics) RailRequest(rail, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.railDuration.WithLabelValues(rail, operation, result).Observe(duration.Seconds())
}

func (m *Metrics) RateFallback() {
	if m == nil {
		return
	}
	m.rateFallbacks.Inc()
}

func (m *Metrics) RateCacheHit() {
	if m == nil {
		return
	}
	m.rateCacheHits.Inc()
}

func (m *Metrics) RateCacheMiss() {
	if m == nil {
		return
	}
	m.rateCacheMisses.Inc()
}

func (m *Metrics) PoolAvailable(currency string, available decimal.Decimal) {
	if m == nil {
		return
	}
	m.poolAvailable.WithLabelValues(currency).Set(available.InexactFloat64())
}

func (m *Metrics) RefundQueued() {
	if m == nil {
		return
	}
	m.refundsQueued.Inc()
}

func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, result).Inc()
}
