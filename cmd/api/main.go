package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/whybepb/campus-fixit/internal/api/http"
	"github.com/whybepb/campus-fixit/internal/api/http/handlers"
	"github.com/whybepb/campus-fixit/internal/auth"
	"github.com/whybepb/campus-fixit/internal/config"
	"github.com/whybepb/campus-fixit/internal/events"
	"github.com/whybepb/campus-fixit/internal/observability"
	"github.com/whybepb/campus-fixit/internal/persistence"
	"github.com/whybepb/campus-fixit/internal/push"
	"github.com/whybepb/campus-fixit/internal/repository"
	"github.com/whybepb/campus-fixit/internal/service"
	"github.com/whybepb/campus-fixit/internal/upload"
	"github.com/whybepb/campus-fixit/internal/worker"
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

	uploads, err := upload.NewStorage(cfg.Upload.Dir, cfg.Upload.MaxImages, cfg.Upload.MaxSizeBytes)
	if err != nil {
		logger.Fatal("failed to init upload storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  issueRepo,
		Cache:      redis,
		StatsTTL:   cfg.Redis.StatsTTL(),
		Dispatcher: dispatcher,
	})
	userService := service.NewUserService(userRepo)

	pusher := push.NewClient(cfg.Push.GatewayURL)
	notificationService := service.NewNotificationService(dispatcher, userRepo, pusher, logger, cfg.Push)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxSizeBytes) * (cfg.Upload.MaxImages + 1),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService, uploads),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
		UploadDir:      cfg.Upload.Dir,
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
