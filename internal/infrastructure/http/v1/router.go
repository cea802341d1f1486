// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/app"
	"stockledger/internal/domain/notify"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/metrics"
	"stockledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services
	Storage  app.Storage

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator validates bearer tokens. When nil every request runs
	// as the user named in X-User-ID.
	JWTValidator middleware.JWTValidator

	// Hub feeds /stock/events; the route is omitted when nil.
	Hub *notify.Hub

	// Metrics adds the request middleware and /metrics when set.
	Metrics *metrics.Metrics

	// Checks are extra readiness probes keyed by dependency name.
	Checks map[string]handlers.Pinger

	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
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
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	router.Use(middleware.ErrorHandler())

	checks := map[string]handlers.Pinger{"storage": cfg.Storage.Ping}
	for name, ping := range cfg.Checks {
		checks[name] = ping
	}
	healthHandler := handlers.NewHealthHandler(cfg.Storage.Driver, checks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	} else {
		v1.Use(middleware.TrustedUser())
	}
	if cfg.Storage.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Storage.Idempotency))
	}

	registerDocumentRoutes(v1, cfg.Services)
	registerLedgerRoutes(v1, cfg)

	return router
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, svc *app.Services) {
	base := handlers.NewBaseHandler()

	handlers.NewReceiptHandler(base, svc.Receipts).RegisterRoutes(rg.Group("/receipts"))
	handlers.NewDeliveryHandler(base, svc.Deliveries).RegisterRoutes(rg.Group("/deliveries"))
	handlers.NewTransferHandler(base, svc.Transfers).RegisterRoutes(rg.Group("/transfers"))
	handlers.NewAdjustmentHandler(base, svc.Adjustments).RegisterRoutes(rg.Group("/adjustments"))
}

// registerLedgerRoutes registers stock, ledger and catalog read endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	handlers.NewStockHandler(base, cfg.Services.Stock).RegisterRoutes(rg)
	handlers.NewCatalogHandler(base, cfg.Services.Products, cfg.Services.Warehouses).RegisterRoutes(rg)

	if cfg.Hub != nil {
		rg.GET("/stock/events", handlers.NewEventsHandler(base, cfg.Hub).Stream)
	}
}
