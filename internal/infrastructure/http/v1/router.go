// Package v1 wires the HTTP API: repositories, domain services,
// handlers and routes.
package v1

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/core/security"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/catalogs/product"
	"chalin/internal/domain/documents/purchase"
	"chalin/internal/domain/documents/quotation"
	"chalin/internal/domain/documents/sale"
	"chalin/internal/domain/documents/transfer"
	"chalin/internal/domain/registers/stock"
	"chalin/internal/domain/reports"
	"chalin/internal/infrastructure/http/v1/handlers"
	"chalin/internal/infrastructure/http/v1/middleware"
	"chalin/internal/infrastructure/storage/postgres"
	"chalin/internal/infrastructure/storage/postgres/catalog_repo"
	"chalin/internal/infrastructure/storage/postgres/document_repo"
	"chalin/internal/infrastructure/storage/postgres/register_repo"
	"chalin/internal/infrastructure/storage/postgres/report_repo"
	"chalin/pkg/logger"
	"chalin/pkg/numerator"
)

// RouterConfig carries the dependencies the router needs.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger
	Tokens    middleware.TokenValidator
	Audit     *postgres.AuditService
	Version   string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints stay outside auth.
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories.
	branchRepo := catalog_repo.NewBranchRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	purchaseRepo := document_repo.NewPurchaseRepo(cfg.TxManager)
	saleRepo := document_repo.NewSaleRepo(cfg.TxManager)
	transferRepo := document_repo.NewTransferRepo(cfg.TxManager)
	quotationRepo := document_repo.NewQuotationRepo(cfg.TxManager)
	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	reportRepo := report_repo.NewReportRepo(cfg.TxManager)

	// Services.
	branchSvc := branch.NewService(branchRepo, cfg.TxManager)
	productSvc := product.NewService(productRepo, cfg.TxManager)
	stockSvc := stock.NewService(stockRepo, cfg.TxManager)
	purchaseSvc := purchase.NewService(purchaseRepo, stockSvc, branchSvc, numerator.New(purchaseRepo), cfg.TxManager)
	saleSvc := sale.NewService(saleRepo, stockSvc, branchSvc, numerator.New(saleRepo), cfg.TxManager)
	transferSvc := transfer.NewService(transferRepo, stockSvc, branchSvc, numerator.New(transferRepo), cfg.TxManager)
	quotationSvc := quotation.NewService(quotationRepo, saleSvc, branchSvc, numerator.New(quotationRepo), cfg.TxManager)
	reportsSvc := reports.NewService(reportRepo, stockSvc, branchSvc, productSvc)

	// Everything below requires a valid token.
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Tokens))
	if cfg.Audit != nil {
		api.Use(middleware.Audit(cfg.Audit))
	}

	manage := middleware.RequireRole(security.RoleManager)

	// Catalogs.
	branchHandler := handlers.NewBranchHandler(base, branchSvc)
	branches := api.Group("/branches")
	{
		branches.GET("/active", branchHandler.ListActive)
		registerCatalogCRUD(branches, branchHandler)
	}

	productHandler := handlers.NewProductHandler(base, productSvc)
	products := api.Group("/products")
	{
		products.GET("/by-barcode/:barcode", productHandler.GetByBarcode)
		registerCatalogCRUD(products, productHandler)
	}

	// Documents.
	purchaseHandler := handlers.NewPurchaseHandler(base, purchaseSvc)
	purchases := api.Group("/purchases")
	{
		purchases.GET("", purchaseHandler.List)
		purchases.GET("/:id", purchaseHandler.Get)
		purchases.POST("", purchaseHandler.Create)
		purchases.POST("/:id/receive", purchaseHandler.Receive)
		purchases.POST("/:id/cancel", purchaseHandler.Cancel)
	}

	saleHandler := handlers.NewSaleHandler(base, saleSvc)
	sales := api.Group("/sales")
	{
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.POST("", saleHandler.Create)
		sales.POST("/:id/cancel", saleHandler.Cancel)
	}

	transferHandler := handlers.NewTransferHandler(base, transferSvc)
	transfers := api.Group("/transfers")
	{
		transfers.GET("", transferHandler.List)
		transfers.GET("/:id", transferHandler.Get)
		transfers.POST("", transferHandler.Create)
		transfers.POST("/:id/approve", transferHandler.Approve)
		transfers.POST("/:id/receive", transferHandler.Receive)
		transfers.POST("/:id/cancel", transferHandler.Cancel)
	}

	quotationHandler := handlers.NewQuotationHandler(base, quotationSvc)
	quotations := api.Group("/quotations")
	{
		quotations.GET("", quotationHandler.List)
		quotations.GET("/:id", quotationHandler.Get)
		quotations.POST("", quotationHandler.Create)
		quotations.POST("/:id/convert", quotationHandler.ConvertToSale)
		quotations.POST("/:id/cancel", quotationHandler.Cancel)
	}

	// Stock register.
	stockHandler := handlers.NewStockHandler(base, stockSvc)
	stockGroup := api.Group("/stock")
	{
		stockGroup.GET("/balance", stockHandler.GetBalance)
		stockGroup.GET("/branches/:id", stockHandler.GetBranchStock)
		stockGroup.GET("/availability/:productId", stockHandler.GetAvailability)
		stockGroup.GET("/low", stockHandler.GetLowStock)
		stockGroup.GET("/movements/:productId", stockHandler.GetMovements)
		stockGroup.GET("/turnover", stockHandler.GetTurnover)
		stockGroup.GET("/valuation/:branchId", stockHandler.GetValuation)
		stockGroup.POST("/adjust", manage, stockHandler.Adjust)
		stockGroup.POST("/min-stock", manage, stockHandler.SetMinStock)
	}

	// Reports.
	reportsHandler := handlers.NewReportsHandler(base, reportsSvc)
	reportsGroup := api.Group("/reports")
	{
		reportsGroup.GET("/consignment-stock/:branchId", reportsHandler.ConsignmentStock)
		reportsGroup.GET("/consignment-sales", reportsHandler.ConsignmentSales)
	}

	// Audit trail.
	if cfg.Audit != nil {
		auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
		api.GET("/audit/:entityType/:id", middleware.RequireRole(security.RoleAdmin), auditHandler.History)
	}

	return router
}
