package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/network-ticketing/internal/api/http"
	"github.com/spec-kit/network-ticketing/internal/api/http/handlers"
	"github.com/spec-kit/network-ticketing/internal/clock"
	"github.com/spec-kit/network-ticketing/internal/config"
	"github.com/spec-kit/network-ticketing/internal/events"
	"github.com/spec-kit/network-ticketing/internal/mailer"
	"github.com/spec-kit/network-ticketing/internal/observability"
	"github.com/spec-kit/network-ticketing/internal/persistence"
	"github.com/spec-kit/network-ticketing/internal/repository"
	"github.com/spec-kit/network-ticketing/internal/service"
	"github.com/spec-kit/network-ticketing/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewIssueCategoryRepository(pool)

	metrics := observability.NewMetrics()
	sysClock := clock.System()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, logger)

	mail := mailer.FromConfig(cfg.Notification, logger)
	notifier := service.NewNotificationService(dispatcher, userRepo, mail, logger, metrics)

	slaService := service.NewSLAService(ticketRepo, notifier, sysClock, logger, metrics)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		HistoryRepo:  historyRepo,
		UserRepo:     userRepo,
		CategoryRepo: categoryRepo,
		Notifier:     notifier,
		SLA:          slaService,
		Clock:        sysClock,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		CategoryRepo: categoryRepo,
		HistoryRepo:  historyRepo,
		Clock:        sysClock,
		Logger:       logger,
	})
	categoryService := service.NewCategoryService(categoryRepo, logger)

	if cfg.SLA.SeedCategories {
		if err := categoryService.SeedDefaults(ctx); err != nil {
			logger.Fatal("failed to seed issue categories", zap.Error(err))
		}
	}

	sweepLock := worker.NewRedisSweepLock(rdb.Client, "sla:sweep:lock")
	monitor := worker.NewSLAMonitor(slaService, sweepLock, cfg.SLA.MonitorInterval(), logger, metrics)
	monitor.Start(ctx)
	defer monitor.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Tickets:    handlers.NewTicketsHandler(ticketService, assignmentService),
		Categories: handlers.NewCategoriesHandler(categoryService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
