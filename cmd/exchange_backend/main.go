package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/handlers"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title BTC Mobile Money Exchange API
// @version 1.0
// @description Exchange between Lightning BTC and ZMW mobile money.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := dto.RegisterValidators(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	adapters, err := buildAdapters(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer adapters.close()

	container, err := services.NewServiceContainer(cfg, repos, adapters.Adapters)
	if err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), metrics.GinMiddleware())
	r.Use(cors.New(corsConfig(cfg)))
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	lim, err := middleware.NewLimiter(cfg.RateLimit, adapters.redis)
	if err != nil {
		return err
	}
	handlers.RegisterRoutes(r, cfg, container, handlers.RouteDeps{Limiter: lim, Metrics: metrics})

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		container.Reconciliation.Run(ctx)
	}()
	if adapters.lnd != nil {
		sub := adapters.newInvoiceSubscriber(container.Exchange, repos.CursorRepo, logger)
		background.Add(1)
		go func() {
			defer background.Done()
			sub.Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port),
			slog.String("storage", cfg.StorageDriver), slog.String("asset_rail", cfg.AssetRailDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			background.Wait()
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
	background.Wait()
	logger.Info("Server stopped")
	return nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Request-ID")
	c.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}
