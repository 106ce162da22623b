// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"garageflow/internal/domain/auth"
	"garageflow/internal/domain/catalogs/client"
	"garageflow/internal/domain/catalogs/vehicle"
	"garageflow/internal/domain/draft"
	"garageflow/internal/infrastructure/http/v1/handlers"
	"garageflow/internal/infrastructure/http/v1/middleware"
	"garageflow/pkg/logger"
)

// RouterConfig holds the services behind the API.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator
	DB           handlers.Pinger
	Version      string

	Clients      *client.Service
	Vehicles     *vehicle.Service
	Billing      handlers.BillingService
	RepairOrders handlers.RepairOrderService
	Settings     handlers.SettingsService
	Drafts       draft.Store
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery and error rendering wrap everything.
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		base := handlers.NewBaseHandler()
		registerCatalogRoutes(v1, base, cfg)
		registerDocumentRoutes(v1, base, cfg)
		registerRepairOrderRoutes(v1, base, cfg)
		registerSettingsRoutes(v1, base, cfg)
		registerDraftRoutes(v1, base, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	clientHandler := handlers.NewClientHandler(base, cfg.Clients)
	vehicleHandler := handlers.NewVehicleHandler(base, cfg.Vehicles)

	clients := rg.Group("/clients")
	RegisterCatalogRoutes(clients, clientHandler)
	clients.GET("/:id/vehicles", vehicleHandler.ListByClient)

	vehicles := rg.Group("/vehicles")
	RegisterCatalogRoutes(vehicles, vehicleHandler)
	vehicles.GET("/by-registration/:plate", vehicleHandler.FindByRegistration)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewDocumentHandler(base, cfg.Billing, cfg.Settings)

	docs := rg.Group("/documents")
	{
		docs.GET("", h.List)
		docs.POST("", h.Create)
		docs.POST("/preview", h.Preview)
		docs.GET("/next-number/:category", h.PeekNumber)
		docs.GET("/:id", h.Get)
		docs.POST("/:id/transition", h.Transition)
		docs.POST("/:id/convert", h.Convert)
	}
}

func registerRepairOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewRepairOrderHandler(base, cfg.RepairOrders)

	orders := rg.Group("/repair-orders")
	{
		orders.GET("", h.List)
		orders.POST("", h.Create)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/start", h.Start)
		orders.POST("/:id/transition", h.Transition)
	}
}

func registerSettingsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSettingsHandler(base, cfg.Settings)

	rg.GET("/settings", h.Get)
	rg.PATCH("/settings", middleware.RequireRole(auth.RoleOwner), h.Update)
}

func registerDraftRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewDraftHandler(base, cfg.Drafts)

	drafts := rg.Group("/drafts")
	{
		drafts.GET("/:formKey", h.Get)
		drafts.PUT("/:formKey", h.Save)
		drafts.DELETE("/:formKey", h.Clear)
	}
}
