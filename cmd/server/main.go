package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/reconciler"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	serviceName = "gowallet"

	rateLimitCleanupInterval = time.Minute
	rateLimitIdleTimeout     = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	appLogger := logging.New(slogLevel(cfg.LogLevel), cfg.LogFormat)

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.Config{
		URL:      cfg.RedisURL,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.WalletLockTimeout)
	retrier := postgresRepo.NewRetrier().WithLogger(appLogger)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	balanceCache := redisRepo.NewBalanceCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	redisPublisher := redisRepo.NewEventPublisher(redisClient, cfg.EventsChannel)

	// Initialize use cases
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo, auditRepo, idGen, m).
		WithBalanceCache(balanceCache, cfg.BalanceCacheTTL).
		WithLogger(appLogger)
	transactionUC := usecase.NewTransactionUseCase(txManager, walletRepo, entryRepo, outboxRepo, idGen, m).
		WithRetrier(retrier).
		WithBalanceCache(balanceCache).
		WithLogger(appLogger).
		WithTransactionTimeout(cfg.TransactionTimeout)
	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, walletRepo, entryRepo, outboxRepo, auditRepo, idGen, m).
		WithRetrier(retrier).
		WithBalanceCache(balanceCache).
		WithLogger(appLogger).
		WithTransactionTimeout(cfg.TransactionTimeout)
	historyUC := usecase.NewHistoryUseCase(walletRepo, entryRepo)
	reconcileUC := usecase.NewReconciliationUseCase(txManager, walletRepo, entryRepo, auditRepo, idGen, m).
		WithLogger(appLogger)
	loanUC := usecase.NewLoanUseCase(loanRepo, transactionUC, m).
		WithLogger(appLogger)
	auditUC := usecase.NewAuditUseCase(auditRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:      handler.NewWalletHandler(walletUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		EntryHandler:       handler.NewEntryHandler(historyUC),
		WithdrawalHandler:  handler.NewWithdrawalHandler(withdrawalUC, historyUC),
		ReconcileHandler:   handler.NewReconcileHandler(reconcileUC, cfg.ReconcilePendingAge),
		LoanHandler:        handler.NewLoanHandler(loanUC),
		AuditHandler:       handler.NewAuditHandler(auditUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Metrics:            m,
		ActorVerifier:      actorVerifier(cfg),
		Logger:             &log,
	})

	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	outboxWorker := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.MultiPublisher{redisPublisher, eventpublisher.NewLogPublisher(appLogger)},
		Logger:     appLogger,
		Metrics:    m,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	sweeper := reconciler.NewSweeper(reconciler.Config{
		Reconciler: reconcileUC,
		Logger:     appLogger,
		Interval:   cfg.ReconcileInterval,
		PendingAge: cfg.ReconcilePendingAge,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return ignoreCanceled(outboxWorker.Start(gctx))
	})

	g.Go(func() error {
		return ignoreCanceled(sweeper.Start(gctx))
	})

	g.Go(func() error {
		rateLimiter.StartCleanup(gctx, rateLimitCleanupInterval, rateLimitIdleTimeout)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// actorVerifier returns nil unless a gateway secret is configured, in which
// case identity headers stop being trusted.
func actorVerifier(cfg *config.Config) middleware.ActorTokenVerifier {
	if cfg.GatewayJWTSecret == "" {
		return nil
	}
	return auth.NewActorVerifier(cfg.GatewayJWTSecret, cfg.GatewayJWTIssuer)
}

func serverAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
