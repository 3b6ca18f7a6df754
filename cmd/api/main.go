package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/acme-ops/opsboard/internal/api/http"
	"github.com/acme-ops/opsboard/internal/api/http/handlers"
	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/config"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/observability"
	"github.com/acme-ops/opsboard/internal/persistence"
	"github.com/acme-ops/opsboard/internal/repository"
	"github.com/acme-ops/opsboard/internal/service"
	"github.com/acme-ops/opsboard/internal/worker"
)

func main() {
	var (
		migrateOnly    = pflag.Bool("migrate-only", false, "apply migrations and exit")
		skipMigrations = pflag.Bool("skip-migrations", false, "do not apply migrations on startup")
		addr           = pflag.String("addr", "", "listen address, overrides APP_HOST/APP_PORT")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if (cfg.Postgres.RunMigrations && !*skipMigrations) || *migrateOnly {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		logger.Info("migrations applied; exiting")
		return
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("cannot serve without a database", zap.Error(persistence.ErrPostgresNotConfigured))
	}
	userRepo := repository.NewUserRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	timeEntryRepo := repository.NewTimeEntryRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if _, err := authService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to seed bootstrap administrator", zap.Error(err))
	}
	userService := service.NewUserService(userRepo, dispatcher, cfg.Auth.BcryptCost)
	projectService := service.NewProjectService(projectRepo, userRepo)
	taskService := service.NewTaskService(taskRepo, projectRepo, userRepo)
	timeEntryService := service.NewTimeEntryService(timeEntryRepo, taskRepo)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		TaskRepo:    taskRepo,
		TxRunner:    repository.NewTxRunner(pool),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		Reports:  analyticsRepo,
		Cache:    redis,
		CacheTTL: cfg.Analytics.CacheTTL(),
		Metrics:  metrics,
		Logger:   logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Tasks:          handlers.NewTasksHandler(taskService),
		TimeEntries:    handlers.NewTimeEntriesHandler(timeEntryService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
	})

	listenAddr := cfg.App.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", listenAddr))
		if err := app.Listen(listenAddr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

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
