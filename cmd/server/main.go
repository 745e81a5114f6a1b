// Package main is the entry point for the uniworld API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/domain/documents/invoice"
	"uniworld/internal/domain/documents/purchaseorder"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/domain/documents/salesreturn"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/domain/reports"
	v1 "uniworld/internal/infrastructure/http/v1"
	"uniworld/internal/infrastructure/http/v1/middleware"
	"uniworld/internal/infrastructure/storage/postgres"
	"uniworld/internal/infrastructure/storage/postgres/catalog_repo"
	"uniworld/internal/infrastructure/storage/postgres/document_repo"
	"uniworld/internal/infrastructure/storage/postgres/ledger_repo"
	"uniworld/internal/infrastructure/storage/postgres/report_repo"
	"uniworld/pkg/logger"
	"uniworld/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting uniworld server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	salesOrderRepo := document_repo.NewSalesOrderRepo(txManager)
	purchaseOrderRepo := document_repo.NewPurchaseOrderRepo(txManager)
	salesReturnRepo := document_repo.NewSalesReturnRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	stockReportRepo := report_repo.NewStockReportRepo(txManager)

	// --- Services ---
	numeratorService := numerator.New(pool)

	ledgerService := ledger.NewService(ledgerRepo, productRepo, txManager)
	productService := product.NewService(productRepo, txManager, numeratorService)
	salesOrderService := salesorder.NewService(salesOrderRepo, productRepo, ledgerService, numeratorService, txManager)
	purchaseOrderService := purchaseorder.NewService(purchaseOrderRepo, ledgerService, numeratorService, txManager)
	salesReturnService := salesreturn.NewService(salesReturnRepo, salesOrderRepo, ledgerService, numeratorService, txManager)
	invoiceService := invoice.NewService(invoiceRepo, salesOrderRepo, numeratorService, txManager)

	// MIN_STOCK_DATE floors reconstruction windows; history before it
	// predates the balance-carrying schema.
	reportCfg := reports.Config{}
	if raw := getEnv("MIN_STOCK_DATE", ""); raw != "" {
		minDate, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Fatalw("invalid MIN_STOCK_DATE", "value", raw, "error", err)
		}
		reportCfg.MinStockDate = minDate
	}
	reportService := reports.NewService(stockReportRepo, reportCfg, txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Router ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")

	router := v1.NewRouter(v1.RouterConfig{
		Pool:                 pool,
		Logger:               log,
		JWTValidator:         middleware.NewHMACValidator(jwtSecret),
		ProductService:       productService,
		LedgerService:        ledgerService,
		SalesOrderService:    salesOrderService,
		PurchaseOrderService: purchaseOrderService,
		SalesReturnService:   salesReturnService,
		InvoiceService:       invoiceService,
		ReportService:        reportService,
		Audit:                auditService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// Periodic pool stats for operators.
	statsTicker := time.NewTicker(5 * time.Minute)
	defer statsTicker.Stop()
	go func() {
		for range statsTicker.C {
			postgres.LogPoolStats(ctx, pool.Unwrap())
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
