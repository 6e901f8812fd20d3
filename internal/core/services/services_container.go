package services

import (
	"fmt"

	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/platform/config"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/accounting"
)

// Adapters are the outbound integrations the services are wired to.
// RateSource, RateCache and Events may be nil.
type Adapters struct {
	AssetRail  rails.AssetRail
	FiatRail   rails.FiatRail
	RateSource gateways.RateSource
	RateCache  gateways.RateCache
	Events     gateways.EventPublisher
	Metrics    *observability.Metrics
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, adapters Adapters) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	fees, err := NewFeeService(accounting.FeeSchedule{
		BasePercentage: cfg.FeeBasePercentage,
		MinFee:         cfg.FeeMinFiat,
		MaxFee:         cfg.FeeMaxFiat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fee service: %w", err)
	}
	container.Fee = fees

	rateOpts := []RateServiceOption{WithRateMetrics(adapters.Metrics)}
	if adapters.RateSource != nil {
		rateOpts = append(rateOpts, WithRateSource(adapters.RateSource))
	}
	if adapters.RateCache != nil {
		rateOpts = append(rateOpts, WithRateCache(adapters.RateCache))
	}
	container.Rate = NewRateService(RateSettings{
		FreshnessWindow: cfg.RateFreshnessWindow,
		FallbackRate:    cfg.RateFallback,
	}, repos.ExchangeRateRepo, rateOpts...)

	container.Liquidity = NewLiquidityService(repos.LiquidityRepo, WithLiquidityMetrics(adapters.Metrics))

	exchangeOpts := []ExchangeServiceOption{
		WithExchangeMetrics(adapters.Metrics),
		WithRailTimeout(cfg.RailTimeout),
	}
	reconOpts := []ReconciliationServiceOption{WithReconciliationMetrics(adapters.Metrics)}
	if adapters.Events != nil {
		exchangeOpts = append(exchangeOpts, WithEventPublisher(adapters.Events))
		reconOpts = append(reconOpts, WithReconciliationEvents(adapters.Events))
	}
	container.Exchange = NewExchangeService(ExchangeDeps{
		Repos:     repos,
		Liquidity: container.Liquidity,
		Rates:     container.Rate,
		Fees:      container.Fee,
		AssetRail: adapters.AssetRail,
		FiatRail:  adapters.FiatRail,
	}, exchangeOpts...)

	if lookup, ok := adapters.AssetRail.(rails.InboundLookup); ok {
		reconOpts = append(reconOpts, WithInboundLookup(lookup, container.Exchange))
	}

	container.Refund = NewRefundService(repos.RefundRepo, nil)
	container.Reconciliation = NewReconciliationService(ReconciliationSettings{
		PendingTimeout: cfg.PendingTimeout,
		Interval:       cfg.SweepInterval,
	}, repos, container.Liquidity, reconOpts...)

	return container, nil
}
