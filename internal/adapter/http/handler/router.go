package handler

import (
	"pos-backoffice/internal/adapter/http/middleware"
	redisStore "pos-backoffice/internal/adapter/storage/redis"
	"pos-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	SettlementSvc  ports.SettlementService
	ApprovalSvc    ports.ApprovalService
	AdjustmentSvc  ports.AdjustmentService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes (POS terminals and back office) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	approvalHandler := NewApprovalHandler(deps.ApprovalSvc)
	adjustmentHandler := NewAdjustmentHandler(deps.AdjustmentSvc)
	reportingHandler := NewReportingHandler(deps.ReportingSvc)

	settlements := v1.Group("/settlements", jwtAuth)
	{
		settlements.POST("", rl("settlements"), settlementHandler.Settle)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("reports"), reportingHandler.ListTransactions)
		transactions.GET("/:id", rl("reports"), reportingHandler.GetTransaction)
		transactions.PUT("/:id", rl("settlements"), settlementHandler.Edit)
		transactions.POST("/:id/delete-request", rl("approvals"), approvalHandler.RequestDelete)
		transactions.POST("/:id/approve", rl("approvals"), approvalHandler.Approve)
		transactions.POST("/:id/reject", rl("approvals"), approvalHandler.Reject)
	}

	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.DELETE("/:id", rl("settlements"), settlementHandler.DeleteWithdrawal)
	}

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("/:id/adjust", rl("adjustments"), adjustmentHandler.AdjustWallet)
	}

	stocks := v1.Group("/stocks", jwtAuth)
	{
		stocks.POST("/adjust", rl("adjustments"), adjustmentHandler.AdjustStock)
		stocks.DELETE("/:product_id", rl("adjustments"), adjustmentHandler.ArchiveStock)
	}

	reports := v1.Group("", jwtAuth)
	{
		reports.GET("/stock-flows", rl("reports"), reportingHandler.ListStockFlows)
		reports.GET("/fee-rules", rl("reports"), reportingHandler.ListFeeRules)
		reports.GET("/balances", rl("reports"), reportingHandler.GetBalances)
	}

	return r
}
