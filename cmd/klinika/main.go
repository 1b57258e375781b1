package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/klinika-id/klinika/internal/app"
	"github.com/klinika-id/klinika/internal/auth"
	"github.com/klinika-id/klinika/internal/observability"
	"github.com/klinika-id/klinika/internal/patients"
	"github.com/klinika-id/klinika/internal/platform/cache"
	"github.com/klinika-id/klinika/internal/platform/db"
	"github.com/klinika-id/klinika/internal/rbac"
	"github.com/klinika-id/klinika/internal/users"
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
		logger.Warn("redis unavailable, throttle and caching degraded", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenService, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		logger.Error("token service", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Logger: logger}

	credentialStore := auth.NewRepository(dbpool)
	principalBuilder := auth.NewPrincipalBuilder(credentialStore, rbacService)
	loginThrottle := auth.NewLoginThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	authService := auth.NewService(credentialStore, principalBuilder, tokenService, loginThrottle)
	authMiddleware := auth.Middleware{Tokens: tokenService, Builder: principalBuilder}

	usersService := users.NewService(users.NewRepository(dbpool))
	patientCache := patients.NewCache(redisClient, cfg.PatientCacheTTL)
	patientsService := patients.NewService(patients.NewRepository(dbpool), patientCache)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthMiddleware:  authMiddleware,
		AuthHandler:     auth.NewHandler(logger, authService, metrics),
		RBACHandler:     rbac.NewHandler(logger, rbacService, rbacMiddleware),
		UsersHandler:    users.NewHandler(logger, usersService, rbacMiddleware),
		PatientsHandler: patients.NewHandler(logger, patientsService, rbacMiddleware),
		Metrics:         metrics,
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
