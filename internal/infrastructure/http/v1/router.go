// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"customfields/internal/domain/customfield"
	"customfields/internal/infrastructure/http/v1/handlers"
	"customfields/internal/infrastructure/http/v1/middleware"
	"customfields/internal/infrastructure/metrics"
	"customfields/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Service owns custom field definitions
	Service *customfield.Service

	// History serves audit trails; nil disables the endpoint
	History handlers.HistoryReader

	// Health probes the backing database; nil reports always ready
	Health *handlers.HealthHandler

	// Logger for request logging
	Logger *logger.Logger

	// Metrics collector; nil disables request metrics and /metrics
	Metrics *metrics.Metrics

	// Gatherer backs /metrics, defaults to prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthRequired rejects requests without a valid token.
	// When false a token is still honoured if present.
	AuthRequired bool

	// Release puts gin in release mode
	Release bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := cfg.Health
	if healthHandler == nil {
		healthHandler = handlers.NewHealthHandler(nil, nil, "")
	}
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Metrics != nil {
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Tenant()) // 1. Resolve tenant
		switch {
		case cfg.AuthRequired:
			protected.Use(middleware.Auth(cfg.JWTValidator)) // 2. Validate JWT
		case cfg.JWTValidator != nil:
			protected.Use(middleware.OptionalAuth(cfg.JWTValidator))
		}
		protected.Use(middleware.UserContext()) // 3. Resolve acting user for metadata

		registerCustomFieldRoutes(protected, cfg)
	}

	return router
}

// registerCustomFieldRoutes registers custom field definition endpoints.
func registerCustomFieldRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewCustomFieldHandler(handlers.NewBaseHandler(), handlers.CustomFieldHandlerConfig{
		Service: cfg.Service,
		History: cfg.History,
		Metrics: cfg.Metrics,
	})

	fields := rg.Group("/custom-fields")
	{
		fields.GET("", h.List)
		fields.POST("", h.Create)
		fields.PUT("", h.ReplaceAll)
		fields.POST("/values/validate", h.ValidateValues)
		fields.GET("/:id", h.Get)
		fields.PUT("/:id", h.Update)
		fields.DELETE("/:id", h.Delete)
		fields.GET("/:id/stats", h.Statistic)
		fields.GET("/:id/options/:optId/stats", h.OptionStatistic)
		fields.GET("/:id/history", h.History)
	}
}
