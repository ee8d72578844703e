package handler

import (
	"settlement-ledger/internal/adapter/http/middleware"
	"settlement-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc  ports.SettlementService
	DepositSvc     ports.DepositService
	DriverSvc      ports.DriverService
	TokenSvc       ports.TokenService
	RateLimiter    ports.RateLimiter // nil = rate limiting disabled
	RateLimitRPM   int64
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = denied-access auditing disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditDenied(deps.AuditSvc))
	}

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules(deps.RateLimitRPM)

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	v1.POST("/trips/:trip_id/settlement",
		middleware.RequireRole(ports.RoleSystem, ports.RoleAdmin), rl("settlement"), settlementHandler.Settle)

	driverHandler := NewDriverHandler(deps.DriverSvc, deps.DepositSvc)
	drivers := v1.Group("/drivers/:driver_id")
	{
		drivers.POST("/deposits",
			middleware.RequireRole(ports.RoleAdmin), rl("deposits"), driverHandler.RecordDeposit)
		drivers.GET("/wallet",
			middleware.RequireRole(ports.RoleAdmin, ports.RoleSystem, ports.RoleDriver), rl("wallet_reads"), driverHandler.GetWallet)
		drivers.GET("/wallet/verify",
			middleware.RequireRole(ports.RoleAdmin), rl("wallet_reads"), driverHandler.VerifyWallet)
		drivers.GET("/ledger",
			middleware.RequireRole(ports.RoleAdmin, ports.RoleDriver), rl("wallet_reads"), driverHandler.ListLedger)
		drivers.POST("/online",
			middleware.RequireRole(ports.RoleDriver, ports.RoleSystem), rl("go_online"), driverHandler.GoOnline)
	}

	return r
}
