package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/eventbright/internal/api/http"
	"github.com/spec-kit/eventbright/internal/api/http/handlers"
	"github.com/spec-kit/eventbright/internal/auth"
	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/observability"
	"github.com/spec-kit/eventbright/internal/persistence"
	"github.com/spec-kit/eventbright/internal/queue"
	"github.com/spec-kit/eventbright/internal/repository"
	"github.com/spec-kit/eventbright/internal/repository/memstore"
	"github.com/spec-kit/eventbright/internal/service"
	"github.com/spec-kit/eventbright/internal/worker"
)

const minBodyLimit = 4 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		repos repository.Repositories
		tx    repository.TxRunner
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewRepositories(pg.Pool)
		tx = repository.NewTxRunner(pg.Pool)
	} else {
		store := memstore.New()
		repos = store.Repositories()
		tx = store
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var publisher queue.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbit := queue.NewRabbitPublisher(cfg.RabbitMQ.URL, logger)
		defer rabbit.Close() //nolint:errcheck
		publisher = rabbit
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	vouchers := service.NewVoucherService(repos.Vouchers)
	points := service.NewPointService(tx, repos.Points, logger)
	purchases := service.NewPurchaseService(service.PurchaseDependencies{
		Repos:      repos,
		Tx:         tx,
		Vouchers:   vouchers,
		Points:     points,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Repos:      repos,
		Tx:         tx,
		Points:     points,
		Vouchers:   vouchers,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	eventService := service.NewEventService(repos)
	notifications := service.NewNotificationService(dispatcher, publisher, logger, cfg.App)

	worker.StartNotificationWorker(ctx, notifications, cfg.RabbitMQ.URL, logger)

	expiry := worker.NewPointExpiryRunner(points, redis.Client, cfg.Points.ExpiryLockTTL(), logger).WithRecorder(metrics)
	if err := expiry.Start(ctx, cfg.Points.ExpiryCron); err != nil {
		logger.Fatal("failed to schedule point expiry", zap.Error(err))
	}

	bodyLimit := cfg.Upload.MaxFileBytes * 2
	if bodyLimit < minBodyLimit {
		bodyLimit = minBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    bodyLimit,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.BaseWebURL)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventService),
		Transactions:   handlers.NewTransactionsHandler(purchases, cfg.Upload, metrics, logger),
		Vouchers:       handlers.NewVouchersHandler(vouchers),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Users),
		RateLimiter:    httptransport.NewRateLimiter(cfg.RateLimit, redis.Client, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	expiry.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
