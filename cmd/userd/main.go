package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quillstack/userd/internal/app"
	"github.com/quillstack/userd/internal/auth"
	"github.com/quillstack/userd/internal/observability"
	"github.com/quillstack/userd/internal/platform/cache"
	"github.com/quillstack/userd/internal/platform/db"
	"github.com/quillstack/userd/internal/users"
	"github.com/quillstack/userd/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, users cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	notifier := jobs.NewEnqueuer(asynqClient, cfg.ExternalURL, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, auth.ServiceConfig{
		Hasher:        auth.NewHasher(cfg.BcryptCost),
		Tokens:        auth.NewTokenGenerator(cfg.ActivationTokenBytes),
		Issuer:        issuer,
		Notifier:      notifier,
		Logger:        logger,
		ActivationTTL: cfg.ActivationTTL,
	})
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, redisClient, cfg.UsersCacheTTL, logger)
	usersHandler := users.NewHandler(logger, usersService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		Guard:        auth.RequireToken(issuer),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
