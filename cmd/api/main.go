package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/servicehub-platform/internal/api/http"
	"github.com/spec-kit/servicehub-platform/internal/api/http/handlers"
	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/config"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/observability"
	"github.com/spec-kit/servicehub-platform/internal/persistence"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/internal/service"
	"github.com/spec-kit/servicehub-platform/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	refs := reference.NewGenerator()
	metrics := observability.NewMetrics()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	locks := service.NewEntityLocks()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		References: refs,
		Dispatcher: dispatcher,
		Locks:      locks,
	})
	invoiceService := service.NewInvoiceService(service.InvoiceDependencies{
		InvoiceRepo: invoiceRepo,
		References:  refs,
		Dispatcher:  dispatcher,
		Locks:       locks,
	})
	paymentService := service.NewPaymentService(invoiceRepo, dispatcher, locks, nil)
	userService := service.NewUserService(userRepo, roleRepo, tokenManager, cfg.Auth.BcryptCost)
	reportService := service.NewReportService(ticketService, invoiceService, userRepo, redis.Client, cfg.Reports.CacheTTL(), logger)

	if pool != nil {
		if err := ticketService.SeedReferenceCounter(ctx); err != nil {
			logger.Fatal("failed to seed ticket references", zap.Error(err))
		}
		if err := invoiceService.SeedReferenceCounter(ctx); err != nil {
			logger.Fatal("failed to seed invoice references", zap.Error(err))
		}
	}

	overdueWorker := worker.NewOverdueWorker(invoiceRepo, dispatcher, logger, cfg.Billing.SweepInterval())
	if pool != nil {
		go overdueWorker.Run(ctx)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Invoices:       handlers.NewInvoicesHandler(invoiceService, paymentService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
