package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "taskmind/api/swagger" // swagger docs
	"taskmind/internal/config"
	"taskmind/internal/database"
	"taskmind/internal/handler"
	"taskmind/internal/logger"
	"taskmind/internal/metrics"
	"taskmind/internal/middleware"
	"taskmind/internal/payment"
	"taskmind/internal/repository"
	"taskmind/internal/service"
	"taskmind/internal/storage"
	"taskmind/internal/websocket"
	"taskmind/pkg/idgen"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           TaskMind API
// @version         1.0
// @description     Micro-task marketplace: task catalog, submissions, review, wallet, payouts and subscriptions.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// bootstrap logger until the configured one exists
	boot := logger.New(os.Getenv("APP_ENV"), "taskmind-api")
	cfg, err := config.Load("configs/.env")
	if err != nil {
		boot.Fatal("invalid configuration", zap.Error(err))
	}
	_ = boot.Sync()

	log := logger.New(cfg.AppEnv, cfg.AppName)
	defer func() { _ = log.Sync() }()
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DSN(), cfg.AppEnv == "production")
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, err := idgen.New(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal("id generator", zap.Error(err))
	}

	var gateway payment.Gateway
	if cfg.PaymentMode == "live" {
		gateway = payment.NewRazorpayGateway(payment.RazorpayConfig{
			BaseURL:       cfg.RazorpayBaseURL,
			KeyID:         cfg.RazorpayKeyID,
			KeySecret:     cfg.RazorpayKeySecret,
			AccountNumber: cfg.RazorpayAccountNumber,
			WebhookSecret: cfg.RazorpayWebhookSecret,
		})
	} else {
		gateway = payment.NewDemoGateway(ids, cfg.RazorpayKeyID, cfg.RazorpayWebhookSecret)
	}
	log.Info("payment gateway ready", zap.String("mode", cfg.PaymentMode))

	var store storage.ObjectStore
	if cfg.MinioAccessKey != "" {
		minioStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatal("object storage unavailable", zap.Error(err))
		}
		store = minioStore
	} else {
		log.Warn("MINIO_ACCESS_KEY not set, image submissions are disabled")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	settingsService := service.NewSettingsService(settingRepo, auditRepo, txManager)
	catalogService := service.NewCatalogService(taskRepo, auditRepo, settingsService, txManager)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, store, wsHub)
	reviewService := service.NewReviewService(submissionRepo, taskRepo, transactionRepo, auditRepo, txManager, wsHub, cfg.ReviewCreditOnApproval)
	walletService := service.NewWalletService(transactionRepo, submissionRepo)
	payoutService := service.NewPayoutService(profileRepo, transactionRepo, auditRepo, txManager, settingsService, gateway, wsHub, service.PayoutConfig{
		ExchangeRate: cfg.ExchangeRate(),
		Currency:     cfg.PayoutCurrency,
	})
	subscriptionService := service.NewSubscriptionService(profileRepo, auditRepo, txManager, gateway, wsHub)
	webhookService := service.NewWebhookService(gateway, payoutService, subscriptionService)
	analyticsService := service.NewAnalyticsService(analyticsRepo)
	auditService := service.NewAuditService(auditRepo)

	auth := middleware.NewAuthenticator(cfg.Secret(), profileRepo, cfg.ProfileCacheTTL)
	withdrawLimiter := middleware.NewPerMinuteLimiter(cfg.WithdrawRatePerMinute)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.AccessLog(log), metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Idempotency-Key"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", websocket.ServeWs(wsHub, auth))

	api := router.Group("")
	handler.NewTaskHandler(catalogService).RegisterRoutes(api, auth)
	handler.NewSubmissionHandler(submissionService).RegisterRoutes(api, auth)
	handler.NewReviewHandler(reviewService).RegisterRoutes(api, auth)
	handler.NewWalletHandler(walletService).RegisterRoutes(api, auth)
	handler.NewPaymentHandler(payoutService, subscriptionService, webhookService, withdrawLimiter).RegisterRoutes(api, auth)
	handler.NewAnalyticsHandler(analyticsService).RegisterRoutes(api, auth)
	handler.NewSettingsHandler(settingsService).RegisterRoutes(api, auth)
	handler.NewAuditHandler(auditService).RegisterRoutes(api, auth)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				withdrawLimiter.Cleanup(10000)
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
