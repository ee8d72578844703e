package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"settlement-ledger/config"
	apidocs "settlement-ledger/docs/api"
	httpHandler "settlement-ledger/internal/adapter/http/handler"
	pgStorage "settlement-ledger/internal/adapter/storage/postgres"
	redisStorage "settlement-ledger/internal/adapter/storage/redis"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/internal/service"
	"settlement-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("currency", cfg.Ledger.Currency).
		Msg("Starting Settlement Ledger")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (SSL_JWT_SECRET)")
	}

	policy, err := cfg.Ledger.Policy()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid wallet policy")
	}
	defaultRate, err := cfg.Ledger.CommissionRate()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default commission rate")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	tripRepo := pgStorage.NewTripRepo(pool)
	driverRepo := pgStorage.NewDriverRepo(pool)
	depositRepo := pgStorage.NewDepositRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	deliveryRepo := pgStorage.NewNotificationDeliveryRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	settlementCache := redisStorage.NewSettlementCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	notifier := service.NewNotificationService(
		deliveryRepo,
		sigSvc,
		&http.Client{Timeout: cfg.Notification.Timeout},
		service.NotificationSettings{
			WebhookURL:    cfg.Notification.WebhookURL,
			Secret:        cfg.Notification.Secret,
			MaxAttempts:   cfg.Notification.MaxAttempts,
			RetryInterval: cfg.Notification.RetryInterval,
		},
		logger.Component(log, "notifier"),
	)
	if cfg.Notification.WebhookURL == "" {
		log.Warn().Msg("notification.webhook_url not set, driver notifications will only be logged")
	}

	settings := service.LedgerSettings{
		Currency:    cfg.Ledger.Currency,
		Policy:      policy,
		DefaultRate: defaultRate,
		MaxAttempts: cfg.Ledger.MaxAttempts,
		CacheTTL:    cfg.Ledger.SettlementCacheTTL,
	}

	// Initialize business services
	settlementSvc := service.NewSettlementService(
		tripRepo,
		driverRepo,
		accountRepo,
		ledgerRepo,
		settlementCache,
		notifier,
		auditSvc,
		transactor,
		settings,
		logger.Component(log, "settlement"),
	)
	depositSvc := service.NewDepositService(
		driverRepo,
		accountRepo,
		ledgerRepo,
		depositRepo,
		notifier,
		auditSvc,
		transactor,
		settings,
		logger.Component(log, "deposit"),
	)
	driverSvc := service.NewDriverService(driverRepo, accountRepo, ledgerRepo, auditSvc, settings, logger.Component(log, "driver"))

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// OpenAPI spec for Swagger UI
	httpHandler.SetSwaggerSpec(apidocs.OpenAPI)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		DepositSvc:     depositSvc,
		DriverSvc:      driverSvc,
		TokenSvc:       tokenSvc,
		RateLimiter:    rateLimitStore,
		RateLimitRPM:   int64(cfg.Server.RateLimitRPM),
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let queued notification deliveries finish before the pool closes.
	notifier.Wait()

	log.Info().Msg("Server exited")
}
