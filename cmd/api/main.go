package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "erp-backend/api/swagger" // swagger docs
	"erp-backend/internal/database"
	"erp-backend/internal/handler"
	"erp-backend/internal/middleware"
	"erp-backend/internal/numbering"
	"erp-backend/internal/repository"
	"erp-backend/internal/scheduler"
	"erp-backend/internal/service"
	"erp-backend/internal/websocket"
	"erp-backend/pkg/logger"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           ERP Document Workflow API
// @version         1.0
// @description     Procurement and sales document workflow with stock and balance ledgers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load("configs/.env")

	log := logger.New(logger.Config{
		Env:   env("APP_ENV", "development"),
		Level: env("LOG_LEVEL", "info"),
	})

	dsn := "postgres://" + env("DB_USER", "postgres") + ":" + env("DB_PASSWORD", "postgres") +
		"@" + env("DB_HOST", "localhost") + ":" + env("DB_PORT", "5432") +
		"/" + env("DB_NAME", "erp") + "?sslmode=" + env("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to postgres")

	hub := websocket.NewHub(log)
	go hub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	seqStore := repository.NewSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	productRepo := repository.NewProductRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reqRepo := repository.NewRequisitionRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	pqRepo := repository.NewPurchaseQuotationRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	grRepo := repository.NewGoodsReceiptRepository(db)
	apInvRepo := repository.NewPurchaseInvoiceRepository(db)
	arInvRepo := repository.NewSalesInvoiceRepository(db)
	vpayRepo := repository.NewVendorPaymentRepository(db)
	cpayRepo := repository.NewCustomerPaymentRepository(db)
	sqRepo := repository.NewSalesQuotationRepository(db)
	soRepo := repository.NewSalesOrderRepository(db)
	deliRepo := repository.NewDeliveryRepository(db)
	retRepo := repository.NewReturnOrderRepository(db)
	giRepo := repository.NewGoodIssueRepository(db)
	cnRepo := repository.NewCreditNoteRepository(db)
	stockRepo := repository.NewStockRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)

	numbers := numbering.NewGenerator(seqStore, log)

	// Services
	stockSvc := service.NewStockService(stockRepo, auditRepo, txManager, log)
	balanceSvc := service.NewBalanceService(balanceRepo, auditRepo, txManager, log)
	procurementSvc := service.NewProcurementService(reqRepo, rfqRepo, pqRepo, poRepo,
		productRepo, auditRepo, txManager, numbers, hub)
	receivingSvc := service.NewReceivingService(grRepo, poRepo, apInvRepo,
		auditRepo, txManager, numbers, stockSvc, balanceSvc, hub)
	salesSvc := service.NewSalesService(sqRepo, soRepo, deliRepo, giRepo, arInvRepo,
		productRepo, auditRepo, txManager, numbers, stockSvc, balanceSvc, hub)
	returnsSvc := service.NewReturnsService(retRepo, cnRepo, arInvRepo,
		auditRepo, txManager, numbers, stockSvc, balanceSvc, hub)
	invoiceSvc := service.NewInvoiceService(apInvRepo, arInvRepo, vpayRepo, cpayRepo,
		auditRepo, txManager, numbers, balanceSvc, hub)
	userSvc := service.NewUserService(userRepo, middleware.GetJWTSecret(), 24*time.Hour)
	masterSvc := service.NewMasterDataService(partnerRepo, productRepo, warehouseRepo)
	auditSvc := service.NewAuditService(auditRepo)

	// Reconciliation sweep
	reconciler := scheduler.NewReconciler(stockSvc, balanceSvc, hub, log)
	if err := reconciler.Start(env("RECONCILE_CRON", "0 3 * * *")); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule reconciliation sweep")
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{env("CORS_ORIGIN", "http://localhost:5173")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c, middleware.GetJWTSecret())
	})

	root := router.Group("")
	handler.NewUserHandler(userSvc).RegisterRoutes(root)
	handler.NewMasterDataHandler(masterSvc).RegisterRoutes(root)
	handler.NewProcurementHandler(procurementSvc).RegisterRoutes(root)
	handler.NewReceivingHandler(receivingSvc).RegisterRoutes(root)
	handler.NewSalesHandler(salesSvc).RegisterRoutes(root)
	handler.NewReturnsHandler(returnsSvc).RegisterRoutes(root)
	handler.NewInvoiceHandler(invoiceSvc).RegisterRoutes(root)
	handler.NewStockHandler(stockSvc).RegisterRoutes(root)
	handler.NewBalanceHandler(balanceSvc).RegisterRoutes(root)
	handler.NewAuditHandler(auditSvc).RegisterRoutes(root)

	port := env("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
