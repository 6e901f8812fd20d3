package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FallbackRateSource is the Source of a quote built from configuration.
const FallbackRateSource = "configured_fallback"

// RateSettings controls rate freshness and fallback.
type RateSettings struct {
	FreshnessWindow time.Duration
	FallbackRate    decimal.Decimal
}

type rateService struct {
	BaseService
	settings RateSettings
	repo     portsrepo.ExchangeRateRepositoryFacade
	source   gateways.RateSource
	cache    gateways.RateCache
	metrics  *observability.Metrics
}

// RateServiceOption is a functional option for configuring the rate service
type RateServiceOption func(*rateService)

// WithRateSource sets the upstream feed. Without one every quote is a fallback.
func WithRateSource(src gateways.RateSource) RateServiceOption {
	return func(s *rateService) {
		s.source = src
	}
}

// WithRateCache shares fresh quotes through cache.
func WithRateCache(cache gateways.RateCache) RateServiceOption {
	return func(s *rateService) {
		s.cache = cache
	}
}

// WithRateMetrics records cache and fallback counters.
func WithRateMetrics(m *observability.Metrics) RateServiceOption {
	return func(s *rateService) {
		s.metrics = m
	}
}

// WithRateClock overrides the clock, for tests.
func WithRateClock(now func() time.Time) RateServiceOption {
	return func(s *rateService) {
		s.now = now
	}
}

// NewRateService creates the rate oracle.
func NewRateService(settings RateSettings, repo portsrepo.ExchangeRateRepositoryFacade, options ...RateServiceOption) portssvc.RateSvc {
	svc := &rateService{settings: settings, repo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.RateSvc = (*rateService)(nil)

func (s *rateService) CurrentRate(ctx context.Context) (*domain.RateQuote, error) {
	now := s.Now()

	if quote := s.fromCache(ctx, now); quote != nil {
		return quote, nil
	}

	latest, err := s.repo.FindLatestExchangeRate(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to load latest exchange rate")
		latest = nil
	}
	if latest != nil && s.isFresh(latest.FetchedAt, now) {
		quote := &domain.RateQuote{Rate: latest.Rate, Source: latest.Source, FetchedAt: latest.FetchedAt}
		s.store(ctx, *quote, now)
		return quote, nil
	}

	quote, fetchErr := s.fetch(ctx, now)
	if fetchErr == nil {
		return quote, nil
	}

	s.metrics.RateFallback()
	if latest != nil && latest.Rate.IsPositive() {
		s.LogWarn(ctx, "Rate source unavailable, using last persisted rate",
			slog.String("error", fetchErr.Error()),
			slog.Time("fetched_at", latest.FetchedAt))
		return &domain.RateQuote{Rate: latest.Rate, Source: latest.Source, FetchedAt: latest.FetchedAt, Stale: true}, nil
	}
	if !s.settings.FallbackRate.IsPositive() {
		s.LogError(ctx, fetchErr, "Rate source unavailable and no fallback configured")
		return nil, fmt.Errorf("%w: no exchange rate available: %v", apperrors.ErrRail, fetchErr)
	}
	s.LogWarn(ctx, "Rate source unavailable, using configured fallback rate",
		slog.String("error", fetchErr.Error()),
		slog.String("rate", s.settings.FallbackRate.String()))
	return &domain.RateQuote{Rate: s.settings.FallbackRate, Source: FallbackRateSource, FetchedAt: now, Stale: true}, nil
}

func (s *rateService) isFresh(fetchedAt, now time.Time) bool {
	return now.Sub(fetchedAt) < s.settings.FreshnessWindow
}

func (s *rateService) fromCache(ctx context.Context, now time.Time) *domain.RateQuote {
	if s.cache == nil {
		return nil
	}
	quote, err := s.cache.Get(ctx)
	if err != nil {
		s.LogWarn(ctx, "Rate cache read failed", slog.String("error", err.Error()))
		return nil
	}
	if quote == nil || quote.Stale || !quote.Rate.IsPositive() || !s.isFresh(quote.FetchedAt, now) {
		s.metrics.RateCacheMiss()
		return nil
	}
	s.metrics.RateCacheHit()
	return quote
}

func (s *rateService) fetch(ctx context.Context, now time.Time) (*domain.RateQuote, error) {
	if s.source == nil {
		return nil, errors.New("no rate source configured")
	}
	rate, err := s.source.FetchRate(ctx)
	if err != nil {
		return nil, err
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("rate source %s returned non-positive rate %s", s.source.Name(), rate)
	}

	record := domain.ExchangeRate{ID: uuid.NewString(), Rate: rate, Source: s.source.Name(), FetchedAt: now}
	if err := s.repo.SaveExchangeRate(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to persist fetched exchange rate", slog.String("source", record.Source))
	}

	quote := domain.RateQuote{Rate: rate, Source: record.Source, FetchedAt: now}
	s.store(ctx, quote, now)
	s.LogDebug(ctx, "Fetched exchange rate", slog.String("source", quote.Source), slog.String("rate", rate.String()))
	return &quote, nil
}

// store caches a fresh quote for the rest of its window. Stale quotes are never cached.
func (s *rateService) store(ctx context.Context, quote domain.RateQuote, now time.Time) {
	if s.cache == nil || quote.Stale {
		return
	}
	ttl := s.settings.FreshnessWindow - now.Sub(quote.FetchedAt)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, quote, ttl); err != nil {
		s.LogWarn(ctx, "Rate cache write failed", slog.String("error", err.Error()))
	}
}
