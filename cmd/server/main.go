package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"freight/internal/app"
	"freight/internal/config"
	"freight/internal/handler"
	internalRedis "freight/internal/redis"
	"freight/internal/repository/postgres"
	"freight/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if err := app.RunMigrations(cfg.Database, cfg.Migration.Dir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg, logger)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) *http.Server {
	// Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Repositories.
	tripRepo := postgres.NewTripRepository(db)
	cardRepo := postgres.NewCardRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	orgRepo := postgres.NewOrgRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	truckRepo := postgres.NewTruckRepository(db)

	// Services.
	coord := service.NewCoordinator(db, logger)
	guard := service.NewExclusivityGuard()
	notificationService := service.NewNotificationService(logger)
	waybillService := service.NewWaybillService(cfg.Waybill.OutputDir, logger)
	ledgerService := service.NewLedgerService(coord, ledgerRepo, notificationService, logger)
	tripService := service.NewTripService(
		coord, guard,
		tripRepo, cardRepo, orgRepo, driverRepo, truckRepo,
		lockStore, cacheStore,
		notificationService, waybillService, logger,
	)
	registryService := service.NewRegistryService(orgRepo, driverRepo, truckRepo, logger)

	// Handlers.
	tripHandler := handler.NewTripHandler(tripService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	registryHandler := handler.NewRegistryHandler(registryService)

	router := app.NewRouter(app.RouterDeps{
		TripHandler:     tripHandler,
		LedgerHandler:   ledgerHandler,
		RegistryHandler: registryHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
