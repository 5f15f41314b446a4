package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/callcenter-service/internal/api/http"
	"github.com/spec-kit/callcenter-service/internal/api/http/handlers"
	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/config"
	"github.com/spec-kit/callcenter-service/internal/events"
	"github.com/spec-kit/callcenter-service/internal/notify"
	"github.com/spec-kit/callcenter-service/internal/observability"
	"github.com/spec-kit/callcenter-service/internal/persistence"
	"github.com/spec-kit/callcenter-service/internal/repository"
	"github.com/spec-kit/callcenter-service/internal/scheduler"
	"github.com/spec-kit/callcenter-service/internal/service"
	"github.com/spec-kit/callcenter-service/internal/worker"
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
	recordRepo := repository.NewCallRecordRepository(pool)
	reminderRepo := repository.NewReminderJobRepository(pool)
	attemptRepo := repository.NewLoginAttemptRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	sink := notify.FromConfig(cfg.Notification, logger)

	sched := scheduler.New(scheduler.Dependencies{
		JobRepo:    reminderRepo,
		RecordRepo: recordRepo,
		Sink:       sink,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	defer sched.Shutdown()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		LoginAttemptRepo: attemptRepo,
	}, logger)
	userService := service.NewUserService(userRepo, recordRepo, cfg.Auth.BcryptCost)
	recordService := service.NewRecordService(service.RecordDependencies{
		RecordRepo: recordRepo,
		Scheduler:  sched,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger)

	if err := authService.BootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	// Recovery runs before the listener starts: pending reminders re-arm or
	// fire before any request can mutate them.
	if err := worker.StartReminderEngine(ctx, sched, notificationService); err != nil {
		logger.Fatal("failed to recover reminder jobs", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Records:        handlers.NewRecordsHandler(recordService),
		AuthMiddleware: authMiddleware,
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
