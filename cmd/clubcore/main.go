package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clubops/clubcore/internal/app"
	"github.com/clubops/clubcore/internal/audit"
	audithttp "github.com/clubops/clubcore/internal/audit/http"
	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/idrange"
	"github.com/clubops/clubcore/internal/observability"
	"github.com/clubops/clubcore/internal/platform/cache"
	"github.com/clubops/clubcore/internal/platform/db"
	"github.com/clubops/clubcore/internal/principals"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis being down disables login throttling but never blocks startup.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttling disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	auditStore := audit.NewPGStore(pool)
	recorder := audit.NewRecorder(auditStore, logger, metrics, cfg.AuditStrict)
	engine := authz.NewEngine(logger, recorder, metrics)
	auditService := audit.NewService(auditStore, engine)

	rangeStore := idrange.NewPGStore(pool)
	allocator := idrange.NewAllocator(rangeStore, metrics)
	if err := allocator.Configure(ctx, idrange.KindOperator, cfg.OperatorRangeMin, cfg.OperatorRangeMax); err != nil {
		logger.Error("configure operator range", slog.Any("error", err))
		os.Exit(1)
	}
	if err := allocator.Configure(ctx, idrange.KindMember, cfg.MemberRangeMin, cfg.MemberRangeMax); err != nil {
		logger.Error("configure member range", slog.Any("error", err))
		os.Exit(1)
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.OperatorTokenTTL, cfg.MemberTokenTTL)
	throttle := auth.NewLoginThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, hasher, tokens, throttle, recorder, metrics, logger)

	principalsRepo := principals.NewRepository(pool)
	principalsService := principals.NewService(principalsRepo, allocator, hasher, engine, recorder, authService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokens,
		AuthHandler:       auth.NewHandler(logger, authService),
		AuditHandler:      audithttp.NewHandler(logger, auditService, authService),
		PrincipalsHandler: principals.NewHandler(logger, principalsService),
		RangesHandler:     idrange.NewHandler(logger, allocator),
		Authz:             authz.Middleware{Engine: engine, Actors: auth.ActorFromContext},
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
