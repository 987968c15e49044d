package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/suggest"
	"github.com/spec-kit/helpdesk-service/internal/worker"
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

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	repos, err := buildRepositories(ctx, cfg, pg, logger)
	if err != nil {
		logger.Fatal("failed to prepare storage", zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var locker locking.Locker = locking.NewLocalLocker()
	if redis.Enabled() {
		locker = locking.NewRedisLocker(redis.Client, cfg.Storage.LockTTL(), logger)
	}

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		Repos:          repos,
		Locker:         locker,
		Dispatcher:     dispatcher,
		Suggester:      buildSuggester(ctx, cfg, redis, logger, metrics),
		Metrics:        metrics,
		Logger:         logger,
		StorageTimeout: cfg.Storage.Timeout(),
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		Repos:          repos,
		BcryptCost:     cfg.Auth.BcryptCost,
		StorageTimeout: cfg.Storage.Timeout(),
		Logger:         logger,
	})
	resolver := auth.NewDirectoryResolver(repos)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Credentials: repos.Credentials,
		Resolver:    resolver,
		Logger:      logger,
	})
	if err := authService.BootstrapAdmin(ctx, cfg.Auth.AdminPSN, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, dispatcher, metrics)

	authMiddleware := auth.NewAuthMiddleware(authService.Tokens(), resolver, cfg.Storage.Timeout())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildRepositories selects Postgres when a pool is connected and the
// in-memory store otherwise, seeding the latter from the directory file.
func buildRepositories(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.Repositories, error) {
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				return repository.Repositories{}, err
			}
		}
		return repository.NewPostgres(pg.PoolHandle()), nil
	}

	repos := memory.New()
	if cfg.Storage.DirectorySeedFile == "" {
		return repos, nil
	}
	seed, err := memory.LoadSeedFile(cfg.Storage.DirectorySeedFile)
	if err != nil {
		return repository.Repositories{}, err
	}
	if err := seed.Apply(ctx, repos, cfg.Auth.BcryptCost); err != nil {
		return repository.Repositories{}, err
	}
	logger.Info("directory seeded", zap.String("file", cfg.Storage.DirectorySeedFile))
	return repos, nil
}

// buildSuggester wraps the Gemini suggester in the Redis cache when both are
// available. Any failure leaves suggestions disabled rather than blocking
// startup.
func buildSuggester(ctx context.Context, cfg *config.Config, redis *persistence.Redis, logger *zap.Logger, metrics *observability.Metrics) suggest.Suggester {
	var inner suggest.Suggester = suggest.Noop{}
	client, err := suggest.NewGeminiClient(ctx, cfg.Suggest.GeminiProject, cfg.Suggest.GeminiLocation)
	switch {
	case err != nil:
		logger.Warn("suggestions disabled", zap.Error(err))
	case client != nil:
		inner = suggest.NewLLMSuggester(client)
		if redis.Enabled() && cfg.Suggest.CacheTTL() > 0 {
			inner = suggest.NewCached(inner, redis.Client, cfg.Suggest.CacheTTL(), logger)
		}
	}
	return suggest.NewDegrading(inner, cfg.Suggest.Timeout(), logger, metrics)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
