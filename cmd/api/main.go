package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/taskforge/task-service/internal/api/http"
	"github.com/taskforge/task-service/internal/api/http/handlers"
	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/config"
	"github.com/taskforge/task-service/internal/events"
	"github.com/taskforge/task-service/internal/observability"
	"github.com/taskforge/task-service/internal/persistence"
	"github.com/taskforge/task-service/internal/repository"
	"github.com/taskforge/task-service/internal/service"
	"github.com/taskforge/task-service/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	secretRepo := repository.NewSecretRepository(pool)

	// The signing secret lives in the database; a failed bootstrap write is
	// fatal because other replicas could not verify anything we sign.
	secret, err := auth.NewSecretKeyStore(secretRepo).GetOrCreate(ctx)
	if err != nil {
		logger.Fatal("failed to load signing secret", zap.Error(err))
	}

	codec := auth.NewTokenCodec(secret, cfg.Auth.TokenTTL())
	tokenService := service.NewTokenService(tokenRepo, codec, logger)
	authService := service.NewAuthService(userRepo, tokenService, cfg.Auth.BcryptCost)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost)

	dispatcher := events.NewInMemoryDispatcher()
	taskService := service.NewTaskService(taskRepo, userRepo, dispatcher, redis.Client)
	commentService := service.NewCommentService(commentRepo, taskRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(codec, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
	})

	go worker.StartTokenSweeper(ctx, tokenService, metrics, logger, cfg.Auth.SweepInterval())

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
