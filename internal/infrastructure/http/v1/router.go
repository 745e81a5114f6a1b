// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/domain/documents/invoice"
	"uniworld/internal/domain/documents/purchaseorder"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/domain/documents/salesreturn"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/domain/reports"
	"uniworld/internal/infrastructure/http/v1/handlers"
	"uniworld/internal/infrastructure/http/v1/middleware"
	"uniworld/internal/infrastructure/storage/postgres"
	"uniworld/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	ProductService       *product.Service
	LedgerService        *ledger.Service
	SalesOrderService    *salesorder.Service
	PurchaseOrderService *purchaseorder.Service
	SalesReturnService   *salesreturn.Service
	InvoiceService       *invoice.Service
	ReportService        *reports.Service

	// Audit records the settlement audit trail; optional.
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// API v1: the actor from the token is provenance only, no
	// permission model hangs off it.
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerCatalogRoutes(api, base, cfg)
		registerDocumentRoutes(api, base, cfg)
		registerLedgerRoutes(api, base, cfg)
		registerReportRoutes(api, base, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewProductHandler(base, cfg.ProductService)

	products := rg.Group("/catalog/products")
	{
		products.GET("", handler.List)
		products.POST("", handler.Create)
		products.GET("/:id", handler.Get)
		products.PUT("/:id", handler.Update)
		products.DELETE("/:id", handler.Delete)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	docs := rg.Group("/document")

	// --- SALES ORDERS ---
	{
		handler := handlers.NewSalesOrderHandler(base, cfg.SalesOrderService, cfg.Audit)
		group := docs.Group("/sales-orders")

		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.PUT("/:id", handler.Update)
		group.DELETE("/:id", handler.Delete)
		group.POST("/:id/items", handler.AddLine)
		group.POST("/:id/deliver", handler.MarkDelivered)
		group.GET("/:id/allocated-lines", handler.AllocatedLines)
		group.PUT("/items/:itemId", handler.UpdateLine)
		group.DELETE("/items/:itemId", handler.RemoveLine)
	}

	// --- PURCHASE ORDERS ---
	{
		handler := handlers.NewPurchaseOrderHandler(base, cfg.PurchaseOrderService, cfg.Audit)
		group := docs.Group("/purchase-orders")

		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.DELETE("/:id", handler.Delete)
		group.POST("/:id/receive", handler.Receive)
		group.POST("/:id/items", handler.AddLine)
		group.PUT("/items/:itemId", handler.UpdateLine)
		group.DELETE("/items/:itemId", handler.RemoveLine)
	}

	// --- SALES RETURNS ---
	{
		handler := handlers.NewSalesReturnHandler(base, cfg.SalesReturnService, cfg.Audit)
		group := docs.Group("/sales-returns")

		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.PUT("/items/:itemId", handler.UpdateLine)
	}

	// --- AR INVOICES ---
	{
		handler := handlers.NewInvoiceHandler(base, cfg.InvoiceService, cfg.Audit)
		group := docs.Group("/invoices")

		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.DELETE("/:id", handler.Delete)
		group.POST("/:id/pay", handler.MarkPaid)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewLedgerHandler(base, cfg.LedgerService)

	group := rg.Group("/ledger/products/:id")
	{
		group.GET("/history", handler.History)
		group.POST("/adjust", handler.Adjust)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewReportsHandler(base, cfg.ReportService)

	group := rg.Group("/reports")
	{
		group.GET("/stock", handler.Summary)
		group.GET("/stock/:id", handler.StockWindow)
	}
}
