package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backoffice/config"
	httpHandler "pos-backoffice/internal/adapter/http/handler"
	pgStorage "pos-backoffice/internal/adapter/storage/postgres"
	redisStorage "pos-backoffice/internal/adapter/storage/redis"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
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
		Msg("Starting POS Back Office")

	ctx := context.Background()

	// Run schema migrations before accepting traffic
	if err := runMigrations(cfg.Database, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

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
	storeRepo := pgStorage.NewStoreRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	balanceRepo := pgStorage.NewBalanceRepo(pool)
	stockRepo := pgStorage.NewStockRepo(pool)
	flowRepo := pgStorage.NewStockFlowRepo(pool)
	feeRepo := pgStorage.NewFeeRuleRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	operatorRepo := pgStorage.NewOperatorRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(operatorRepo, hashSvc, tokenSvc)
	settlementSvc := service.NewSettlementService(
		txRepo,
		balanceRepo,
		flowRepo,
		feeRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		log,
		cfg.Settlement.AllowNegativeStock,
		cfg.Settlement.IdempotencyTTL,
	)
	approvalSvc := service.NewApprovalService(txRepo, operatorRepo, hashSvc, transactor, log)
	adjustmentSvc := service.NewAdjustmentService(balanceRepo, stockRepo, flowRepo, transactor, log)
	reportingSvc := service.NewReportingService(txRepo, flowRepo, feeRepo, balanceRepo, walletRepo, storeRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SettlementSvc:  settlementSvc,
		ApprovalSvc:    approvalSvc,
		AdjustmentSvc:  adjustmentSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
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

	log.Info().Msg("Server exited")
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql connection. The pgx stdlib driver keeps it compatible
// with the main pool's DSN.
func runMigrations(cfg config.DatabaseConfig, log zerolog.Logger) error {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("Schema up to date")
	} else {
		log.Info().Msg("Migrations applied")
	}
	return nil
}
