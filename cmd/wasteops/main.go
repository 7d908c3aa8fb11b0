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

	"github.com/wasteops/wasteops/internal/app"
	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/directory"
	"github.com/wasteops/wasteops/internal/identity"
	"github.com/wasteops/wasteops/internal/observability"
	"github.com/wasteops/wasteops/internal/platform/cache"
	"github.com/wasteops/wasteops/internal/platform/db"
	"github.com/wasteops/wasteops/internal/scope"
	"github.com/wasteops/wasteops/internal/shared"
	"github.com/wasteops/wasteops/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "wasteops_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo)
	identityHandler := identity.NewHandler(logger, identityService, csrfManager)
	identityMiddleware := identity.Middleware{Service: identityService, Logger: logger}

	roleOverrides, err := authz.NewOverrideRepository(dbpool).LoadRoleOverrides(ctx)
	if err != nil {
		logger.Warn("load role overrides, using catalog defaults", slog.Any("error", err))
	}
	resolver := authz.NewResolver(roleOverrides)

	metrics := observability.NewMetrics()

	principalFromContext := func(ctx context.Context) authz.Principal {
		if p := identity.PrincipalFromContext(ctx); p != nil {
			return p
		}
		return nil
	}
	guard := authz.NewGuard(resolver, logger, principalFromContext, cfg.GuardFallback).
		WithObserver(metrics.ObserveGuardDecision)
	authzHandler := authz.NewHandler(logger, resolver, guard, func(r *http.Request) authz.Principal {
		if p := identity.PrincipalFromContext(r.Context()); p != nil {
			return p
		}
		return nil
	})

	directoryRepo := directory.NewRepository(dbpool)
	directoryCache := directory.NewCache(redisClient, cfg.DirectoryCacheTTL)
	directoryService := directory.NewService(directoryRepo, directoryCache)
	directoryHandler := directory.NewHandler(logger, directoryService)

	scopeKV := scope.NewRedisKV(redisClient, cfg.ScopeTTL)
	scopeManager := scope.NewManager(directoryService, scopeKV, logger)
	scopeHandler := scope.NewHandler(logger, scopeManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		IdentityHandler:    identityHandler,
		IdentityMiddleware: identityMiddleware,
		AuthzHandler:       authzHandler,
		Guard:              guard,
		ScopeHandler:       scopeHandler,
		DirectoryHandler:   directoryHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
