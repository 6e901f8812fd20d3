package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/btc_momo_exchange/internal/cache"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/core/services"
	"github.com/SscSPs/btc_momo_exchange/internal/events"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/platform/config"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/lipila"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/lnd"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/lnurl"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/railhttp"
	"github.com/SscSPs/btc_momo_exchange/internal/rails/voltage"
	"github.com/SscSPs/btc_momo_exchange/internal/rates/coingecko"
	"github.com/SscSPs/btc_momo_exchange/internal/repositories/database/pgsql"
	"github.com/SscSPs/btc_momo_exchange/internal/repositories/memory"
	"github.com/SscSPs/btc_momo_exchange/pkg/database"
	"github.com/redis/go-redis/v9"
)

// openStorage returns the repositories for the configured driver and a
// function releasing their resources.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; state is lost on restart")
		return memory.NewStore().Provider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), dbPool.Close, nil
}

type adapterSet struct {
	services.Adapters
	redis   *redis.Client
	lnd     *lnd.Client
	closers []func() error
}

func (a *adapterSet) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close adapter", slog.String("error", err.Error()))
		}
	}
}

func (a *adapterSet) newInvoiceSubscriber(processor portssvc.WebhookProcessorSvc, cursors lnd.CursorStore, logger *slog.Logger) *lnd.InvoiceSubscriber {
	return lnd.NewInvoiceSubscriber(a.lnd, processor, cursors, logger)
}

func buildAdapters(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*adapterSet, error) {
	set := &adapterSet{}
	set.Metrics = metrics
	railOpt := railhttp.WithMetrics(metrics)

	resolver := lnurl.NewResolver(railhttp.New(railhttp.Config{
		Rail:              lnurl.RailName,
		Timeout:           cfg.RailTimeout,
		RequestsPerSecond: cfg.RailRequestsPerSecond,
	}, railOpt))

	assetRail, err := buildAssetRail(cfg, resolver, railOpt, set)
	if err != nil {
		return nil, err
	}
	set.AssetRail = assetRail

	set.FiatRail = lipila.NewClient(railhttp.New(railhttp.Config{
		Rail:              lipila.RailName,
		BaseURL:           cfg.LipilaBaseURL,
		APIKey:            cfg.LipilaAPIKey,
		Timeout:           cfg.RailTimeout,
		RequestsPerSecond: cfg.RailRequestsPerSecond,
	}, railOpt))

	set.RateSource = coingecko.NewSource(railhttp.New(railhttp.Config{
		Rail:              coingecko.SourceName,
		BaseURL:           cfg.RateSourceURL,
		Timeout:           cfg.RailTimeout,
		RequestsPerSecond: cfg.RateSourceRPS,
		Burst:             1,
	}, railOpt))

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			set.close()
			return nil, err
		}
		set.redis = client
		set.RateCache = cache.NewRateCache(client)
		set.closers = append(set.closers, client.Close)
		logger.Info("Connected to Redis; rate cache and shared rate limits enabled")
	}

	var publisher gateways.EventPublisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
		set.closers = append(set.closers, kp.Close)
		publisher = kp
		logger.Info("Publishing lifecycle events to Kafka", slog.String("topic", cfg.KafkaEventsTopic))
	}
	set.Events = publisher

	return set, nil
}

func buildAssetRail(cfg *config.Config, resolver *lnurl.Resolver, railOpt railhttp.Option, set *adapterSet) (rails.AssetRail, error) {
	if cfg.AssetRailDriver == config.AssetRailLND {
		client, err := lnd.NewClient(lnd.Config{
			Host:           cfg.LNDHost,
			TLSCertPath:    cfg.LNDTLSCertPath,
			MacaroonPath:   cfg.LNDMacaroonPath,
			InvoiceExpiry:  cfg.InvoiceExpiry,
			PaymentTimeout: cfg.LNDPaymentTimeout,
			FeeLimitSats:   cfg.LNDFeeLimitSats,
		}, resolver)
		if err != nil {
			return nil, err
		}
		set.lnd = client
		set.closers = append(set.closers, client.Close)
		return client, nil
	}

	return voltage.NewClient(railhttp.New(railhttp.Config{
		Rail:              voltage.RailName,
		BaseURL:           cfg.VoltageBaseURL,
		APIKey:            cfg.VoltageAPIKey,
		Timeout:           cfg.RailTimeout,
		RequestsPerSecond: cfg.RailRequestsPerSecond,
	}, railOpt), resolver, cfg.InvoiceExpiry), nil
}
