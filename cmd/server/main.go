// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paylink-service/config"
	"paylink-service/internal/chains"
	"paylink-service/internal/events"
	"paylink-service/internal/handler"
	"paylink-service/internal/middleware"
	"paylink-service/internal/repository"
	"paylink-service/internal/router"
	"paylink-service/internal/usecase"
	"paylink-service/internal/worker"
	"paylink-service/pkg/jwtutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	envErr := godotenv.Load()

	// Initialize logger
	logger, err := newLogger()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment")
	}

	logger.Info("starting paylink service")

	// Load configuration
	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("status_store", cfg.Storage.StatusBackend),
		zap.String("events", cfg.Events.Backend))

	ctx := context.Background()
	now := usecase.Clock(time.Now)

	// Payment link storage
	var links repository.PaymentLinkRepository
	switch cfg.Storage.Backend {
	case "postgres":
		dbPool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			logger.Fatal("database ping failed", zap.Error(err))
		}
		logger.Info("connected to database")

		if cfg.Storage.RunMigrations {
			if err := repository.RunMigrations(dbPool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		links = repository.NewPostgresPaymentLinkRepository(dbPool)

	default:
		memory := repository.NewMemoryPaymentLinkRepository()
		if cfg.Storage.SeedDemoData {
			for _, link := range repository.DemoPaymentLinks(cfg.Checkout.PaymentLinkBaseURL, now()) {
				if err := memory.Create(ctx, link); err != nil {
					logger.Warn("failed to seed payment link", zap.String("payment_link_id", link.ID), zap.Error(err))
				}
			}
			logger.Info("seeded demo payment links")
		}
		links = memory
	}

	catalog := repository.NewMemoryCatalogRepository(repository.DemoProjects(), repository.DemoSettlementAccounts())

	// Redis is shared by the status store and the redis publisher.
	var rdb *redis.Client
	if cfg.Storage.StatusBackend == "redis" || cfg.Events.Backend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	var statuses repository.StatusRepository
	if cfg.Storage.StatusBackend == "redis" {
		statuses = repository.NewRedisStatusRepository(rdb, 0)
	} else {
		statuses = repository.NewMemoryStatusRepository()
	}

	// Domain events
	var publisher events.Publisher
	switch cfg.Events.Backend {
	case "redis":
		publisher = events.NewRedisPublisher(rdb, cfg.Events.RedisChannel, logger)
	case "kafka":
		publisher = events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger)
	default:
		publisher = events.NewLogPublisher(logger)
	}
	defer publisher.Close()

	registry := chains.NewDefaultRegistry(cfg.Checkout.DepositERC20, cfg.Checkout.DepositTRC20)
	hub := handler.NewHub()

	// Initialize usecases
	paymentLinkUC := usecase.NewPaymentLinkUsecase(
		links,
		catalog,
		publisher,
		hub,
		cfg.Checkout.PaymentLinkBaseURL,
		now,
		logger,
	)
	checkoutUC := usecase.NewCheckoutUsecase(
		links,
		catalog,
		statuses,
		paymentLinkUC,
		registry,
		publisher,
		hub,
		cfg.Checkout.KycRedirectURL,
		now,
		logger,
	)

	poller := worker.NewTransactionPoller(
		worker.FetcherFunc(checkoutUC.TransactionStatus),
		cfg.Checkout.PollInterval,
		cfg.Checkout.PollBudget,
		logger,
	)

	// Initialize handlers
	handlers := router.Handlers{
		PaymentLinks: handler.NewPaymentLinkHandler(paymentLinkUC, logger),
		Checkout:     handler.NewCheckoutHandler(checkoutUC, logger),
		Admin:        handler.NewAdminHandler(paymentLinkUC, checkoutUC, logger),
		Stream:       handler.NewStreamHandler(checkoutUC, hub, poller, logger),
	}
	if cfg.JWT.DemoLoginEnabled {
		generator := jwtutil.NewGenerator([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.TTL)
		handlers.Sessions = handler.NewSessionHandler(generator, logger)
		logger.Warn("demo login enabled")
	}

	auth := middleware.NewAuthMiddleware(jwtutil.NewVerifier([]byte(cfg.JWT.Secret), cfg.JWT.Issuer), logger)

	// Setup routes
	r := router.SetupRoutes(handlers, auth, logger)

	// Create HTTP server. No WriteTimeout: checkout streams are long lived
	// and the router applies its own timeout to plain requests.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(r, "paylink-service"),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	poller.Stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
