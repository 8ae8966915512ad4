package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundedlabs/propgate/internal/alert"
	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/handler"
	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/notify"
	"github.com/fundedlabs/propgate/internal/payment"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 2. Initialize Persistence
	// Postgres is the system of record and is required.
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	logger.Info("✅ Connected to PostgreSQL")

	accountRepo := repository.NewPostgresAccountRepo(db)
	metricsRepo := repository.NewPostgresMetricsRepo(db)
	alertRepo := repository.NewPostgresAlertRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	withdrawalRepo := repository.NewPostgresWithdrawalRepo(db)
	refreshRepo := repository.NewPostgresRefreshRepo(db)
	auditRepo := repository.NewPostgresAuditRepo(db)

	// Redis is a lookaside: cache, dedup keys and idempotency records fall
	// back to Postgres / memory when it is down.
	var (
		metricsCache     service.MetricsCache
		alertKeys        alert.KeyStore     = alertRepo
		keyPruner        service.KeyPruner  = alertRepo
		idempotencyStore middleware.IdempotencyStore
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			metricsCache = repository.NewRedisMetricsCache(redisClient, cfg.FreshnessWindow())
			redisKeys := repository.NewRedisAlertKeyStore(redisClient)
			alertKeys = redisKeys
			keyPruner = redisKeys
			idempotencyStore = repository.NewRedisIdempotencyStore(redisClient,
				time.Duration(cfg.Redis.IdempotencyTTLSeconds)*time.Second)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back", "error", err)
		}
	}
	if idempotencyStore == nil {
		idempotencyStore = middleware.NewInMemIdempotencyStore()
	}

	// 3. Initialize Core Services
	clientManager := service.NewClientManager(cfg)
	metaClient := metaapi.NewClient(cfg.MetaAPI)
	stripeClient := payment.NewStripeClient(cfg.Stripe)
	mailer := notify.NewMailer(cfg.Notify)

	metricsSvc := service.NewMetricsService(metricsCache, metricsRepo, accountRepo, metaClient, cfg.FreshnessWindow())
	alertEngine := alert.NewEngine(alertKeys, mailer)
	alertSvc := service.NewAlertService(alertEngine, alertRepo, accountRepo, metricsSvc, keyPruner)
	accountSvc := service.NewAccountService(accountRepo, metaClient, metricsSvc)
	orderSvc := service.NewOrderService(orderRepo, stripeClient)
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, accountRepo)

	auditSvc, err := service.NewAuditService("./logs", auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	scheduler := service.NewScheduler(alertSvc, refreshRepo, cfg.SweepInterval())
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	scheduler.Start(schedCtx)

	// 4. Initialize Handlers
	accountHandler := handler.NewAccountHandler(accountSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc)
	notificationHandler := handler.NewNotificationHandler(mailer)
	auditHandler := handler.NewAuditHandler(auditSvc)

	// 5. Setup Router
	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "propgate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, clientManager))
	v1.Use(middleware.RateLimitMiddleware(clientManager))
	v1.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/metaapi/metrics", metricsHandler.Refresh)
		v1.POST("/metaapi/accounts", accountHandler.Link)
		v1.POST("/metaapi/accounts/:id/risk-features", accountHandler.EnableRiskFeatures)

		v1.GET("/accounts", accountHandler.List)
		v1.POST("/accounts", accountHandler.Register)
		v1.GET("/accounts/:id", accountHandler.Get)
		v1.GET("/accounts/:id/metrics", metricsHandler.Get)
		v1.GET("/accounts/:id/objectives", metricsHandler.Objectives)

		v1.GET("/alerts", alertHandler.List)
		v1.PATCH("/alerts/:id/read", alertHandler.MarkRead)

		v1.POST("/orders", orderHandler.Create)
		v1.GET("/orders", orderHandler.List)
		v1.GET("/orders/:id", orderHandler.Get)

		v1.POST("/withdrawals", withdrawalHandler.Create)
		v1.GET("/withdrawals/:user_id", withdrawalHandler.GetByUser)
	}

	admin := v1.Group("")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.PATCH("/accounts/:id/status", accountHandler.UpdateStatus)
		admin.DELETE("/accounts/:id", accountHandler.Delete)

		admin.POST("/alerts/scan", alertHandler.Scan)

		admin.PATCH("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)
		admin.PATCH("/orders/:id/challenge-status", orderHandler.UpdateChallengeStatus)

		admin.GET("/withdrawals", withdrawalHandler.List)
		admin.POST("/withdrawals/:user_id/approve", withdrawalHandler.Approve)
		admin.POST("/withdrawals/:user_id/reject", withdrawalHandler.Reject)
		admin.POST("/withdrawals/:user_id/complete", withdrawalHandler.Complete)
		admin.DELETE("/withdrawals/:user_id", withdrawalHandler.Clear)

		admin.POST("/notifications/challenge-emails", notificationHandler.SendChallengeEmails)
		admin.GET("/audit", auditHandler.List)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 PropGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopScheduler()
	scheduler.Wait()
	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
