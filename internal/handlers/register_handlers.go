package handlers

import (
	"net/http"

	"github.com/SscSPs/btc_momo_exchange/cmd/docs"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/middleware"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/SscSPs/btc_momo_exchange/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RouteDeps are the cross-cutting pieces the routes need besides services.
// Both fields may be nil.
type RouteDeps struct {
	Limiter *limiter.Limiter
	Metrics *observability.Metrics
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Rail callbacks are not rate limited: the rails retry on 429.
	RegisterWebhookRoutes(r.Group(""), services.Exchange, WebhookSecrets{
		Voltage: cfg.WebhookSecretVoltage,
		Lipila:  cfg.WebhookSecretLipila,
	})

	setupAPIV1Routes(r, cfg, services, deps)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the public exchange API and the operator API under /api/v1.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) {
	v1 := r.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter))
	}

	RegisterExchangeRoutes(v1, services.Exchange, services.Liquidity, services.Rate)

	admin := v1.Group("/admin", middleware.OperatorAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	RegisterAdminRoutes(admin, services.Liquidity, services.Exchange, services.Refund)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
