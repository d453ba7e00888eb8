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

	httptransport "github.com/deskline/helpdesk/internal/api/http"
	"github.com/deskline/helpdesk/internal/api/http/handlers"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/persistence"
	"github.com/deskline/helpdesk/internal/repository"
	"github.com/deskline/helpdesk/internal/service"
	"github.com/deskline/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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

	var repos *repository.Repositories
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresRepositories(pg.Pool)
	} else {
		repos = repository.NewMemory().Repositories()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var sessions auth.SessionStore
	if redis.Enabled() {
		sessions = auth.NewRedisSessionStore(redis.Client, cfg.Redis.KeyPrefix)
	} else {
		sessions = auth.NewMemorySessionStore()
	}

	authorizer, err := authz.New(authz.Options{AllowClientComments: cfg.Policy.AllowClientComments})
	if err != nil {
		logger.Fatal("failed to build authorizer", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification))

	deps := service.Dependencies{
		Repos:      repos,
		Authorizer: authorizer,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	slaService := service.NewSLAService(deps)

	authService := service.NewAuthService(deps, cfg.Auth, tokens, sessions)
	userService := service.NewUserService(deps)
	categoryService := service.NewCategoryService(deps)
	ticketService := service.NewTicketService(deps, slaService)
	commentService := service.NewCommentService(deps)
	articleService := service.NewArticleService(deps)
	cannedService := service.NewCannedResponseService(deps)
	dashboardService := service.NewDashboardService(deps, cfg.Dashboard.DefaultWindowDays)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		Users:           handlers.NewUsersHandler(userService),
		Categories:      handlers.NewCategoriesHandler(categoryService),
		Tickets:         handlers.NewTicketsHandler(ticketService, commentService),
		Articles:        handlers.NewArticlesHandler(articleService),
		CannedResponses: handlers.NewCannedResponsesHandler(cannedService),
		Dashboard:       handlers.NewDashboardHandler(dashboardService, slaService),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, sessions, repos.Users),
		Authorizer:      authorizer,
		RateLimiter:     httptransport.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:         metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
