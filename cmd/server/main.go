package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/emart/internal/adapter/http"
	"github.com/iho/emart/internal/adapter/http/handler"
	apimiddleware "github.com/iho/emart/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/emart/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/emart/internal/adapter/repository/redis"
	"github.com/iho/emart/internal/infrastructure/auth"
	"github.com/iho/emart/internal/infrastructure/config"
	"github.com/iho/emart/internal/infrastructure/eventpublisher"
	"github.com/iho/emart/internal/infrastructure/invoice"
	"github.com/iho/emart/internal/infrastructure/logger"
	"github.com/iho/emart/internal/infrastructure/metrics"
	"github.com/iho/emart/internal/infrastructure/postgres"
	"github.com/iho/emart/internal/infrastructure/redis"
	"github.com/iho/emart/internal/usecase"
)

const (
	shopName              = "E-Mart"
	limiterCleanupEvery   = 10 * time.Minute
	limiterIdleExpiration = time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		ConnectAttempts: cfg.DatabaseConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redisClientConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegistry(registry)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	parentRepo := postgresRepo.NewParentRepository()
	fullPaymentRepo := postgresRepo.NewFullPaymentRepository(pool)
	planRepo := postgresRepo.NewInstallmentPlanRepository(pool)
	installmentRepo := postgresRepo.NewInstallmentRepository(pool)
	saleRepo := postgresRepo.NewSaleRepository(pool)
	purchaseRepo := postgresRepo.NewPurchaseRepository(pool)
	customerRepo := postgresRepo.NewCustomerRepository(pool)
	companyRepo := postgresRepo.NewCompanyRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	productRepo := postgresRepo.NewProductRepository(pool)
	dashboardRepo := postgresRepo.NewDashboardRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, parentRepo, fullPaymentRepo, planRepo, installmentRepo, outboxRepo, idGen, cache, m)
	saleUC := usecase.NewSaleUseCase(txManager, saleRepo, customerRepo, productRepo, outboxRepo, ledgerUC, idGen, cache, m)
	purchaseUC := usecase.NewPurchaseUseCase(txManager, purchaseRepo, customerRepo, outboxRepo, ledgerUC, idGen, cache, m)
	customerUC := usecase.NewCustomerUseCase(txManager, customerRepo, saleRepo)
	catalogUC := usecase.NewCatalogUseCase(companyRepo, categoryRepo)
	productUC := usecase.NewProductUseCase(productRepo, companyRepo, categoryRepo)
	dashboardUC := usecase.NewDashboardUseCase(dashboardRepo, productRepo, cache, cfg.DashboardCacheTTL, m)

	routerCfg := httpAdapter.RouterConfig{
		CustomerHandler:  handler.NewCustomerHandler(customerUC),
		CatalogHandler:   handler.NewCatalogHandler(catalogUC),
		ProductHandler:   handler.NewProductHandler(productUC),
		SaleHandler:      handler.NewSaleHandler(saleUC, invoice.NewRenderer(shopName)),
		PurchaseHandler:  handler.NewPurchaseHandler(purchaseUC),
		PaymentHandler:   handler.NewPaymentHandler(ledgerUC),
		DashboardHandler: handler.NewDashboardHandler(dashboardUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisPinger(redisClient)),
		Logger:           log.Logger,
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsGatherer:  registry,
	}

	verifier, err := tokenVerifier(cfg)
	if err != nil {
		return err
	}
	routerCfg.TokenVerifier = verifier

	if cfg.RateLimitEnabled {
		limiter := apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		routerCfg.RateLimiter = limiter
		go cleanupLimiters(ctx, limiter)
	}

	if cfg.OutboxEnabled {
		outboxLogger := log.Logger
		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  selectPublisher(cfg, redisClient, &outboxLogger),
			Metrics:    m,
			Logger:     &outboxLogger,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("outbox publisher stopped")
			}
		}()
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("auth", verifier != nil).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func redisClientConfig(cfg *config.Config) redis.ClientConfig {
	return redis.ClientConfig{
		URL:             cfg.RedisURL,
		ClientName:      "emart",
		PoolSize:        cfg.RedisPoolSize,
		DialTimeout:     cfg.RedisDialTimeout,
		ReadTimeout:     cfg.RedisReadTimeout,
		WriteTimeout:    cfg.RedisWriteTimeout,
		ConnectAttempts: cfg.RedisConnectAttempts,
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// tokenVerifier returns nil when authentication is disabled.
func tokenVerifier(cfg *config.Config) (apimiddleware.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

func selectPublisher(cfg *config.Config, client *goredis.Client, logger *zerolog.Logger) usecase.EventPublisher {
	if cfg.OutboxPublishToLogs || client == nil {
		return eventpublisher.NewLogPublisher(logger)
	}
	return redisRepo.NewEventPublisher(client, cfg.OutboxChannel)
}

func redisPinger(client *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func cleanupLimiters(ctx context.Context, limiter *apimiddleware.RateLimiter) {
	ticker := time.NewTicker(limiterCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupLimiters(limiterIdleExpiration); n > 0 {
				log.Debug().Int("removed", n).Msg("dropped idle rate limiters")
			}
		}
	}
}
