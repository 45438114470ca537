package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusgive/campusgive/internal/app"
	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/observability"
	"github.com/campusgive/campusgive/internal/platform/blob"
	"github.com/campusgive/campusgive/internal/platform/cache"
	"github.com/campusgive/campusgive/internal/platform/db"
	"github.com/campusgive/campusgive/internal/platform/migrations"
	"github.com/campusgive/campusgive/internal/security/password"
	"github.com/campusgive/campusgive/internal/security/token"
	"github.com/campusgive/campusgive/internal/view"
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

	if err := migrations.Up(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 10, MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		logger.Error("password hasher", slog.Any("error", err))
		os.Exit(1)
	}
	tokens, err := token.NewManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Error("token manager", slog.Any("error", err))
		os.Exit(1)
	}

	blobs, uploadDir, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("blob store", slog.Any("error", err))
		os.Exit(1)
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	guard := auth.NewSessionGuard(tokens, logger)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, hasher, tokens)
	authHandler := auth.NewHandler(logger, authService, guard)
	authorizer := auth.NewAuthorizer(hasher)

	statsCache := donations.NewStatsCache(redisClient, cfg.StatsCacheTTL, logger)
	authService.InvalidateOnRegister(statsCache)
	statsCache.Observe(metrics)
	donationRepo := donations.NewRepository(dbpool)
	donationService := donations.NewService(donationRepo, blobs, authorizer, authService, statsCache, logger)
	donationHandler := donations.NewHandler(logger, donationService, guard.RequireAPI(), cfg.UploadMaxBytes)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		Guard:            guard,
		AuthHandler:      authHandler,
		DonationsHandler: donationHandler,
		Metrics:          metrics,
		UploadDir:        uploadDir,
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

// newBlobStore picks the configured image backend. The returned directory is
// non-empty only for the local backend, which the router then serves.
func newBlobStore(ctx context.Context, cfg *app.Config) (blob.Store, string, error) {
	if cfg.BlobBackend == app.BlobBackendS3 {
		store, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		return store, "", err
	}
	store, err := blob.NewLocal(cfg.UploadDir, "/uploads/")
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
