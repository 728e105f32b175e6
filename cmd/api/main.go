package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/api/routes"
	"github.com/marketdesk/marketdesk/api/views"
	"github.com/marketdesk/marketdesk/internal/auth"
	"github.com/marketdesk/marketdesk/internal/inventory"
	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/db"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/metrics"
	"github.com/marketdesk/marketdesk/pkg/migrate"
	"github.com/marketdesk/marketdesk/pkg/redis"
	"github.com/marketdesk/marketdesk/pkg/security"
	"github.com/marketdesk/marketdesk/pkg/storage/uploads"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		File:        fileOptions(cfg.Log),
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		_ = logg.Close()
		os.Exit(1)
	}
	_ = logg.Close()
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunAtBoot(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
	}

	var store session.Store = session.NewMemoryStore()
	if cfg.Session.UsesRedis() {
		store = redisClient
	}
	sessions, err := session.NewManager(store, cfg.Session, logg)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		DB:     dbClient,
		Hasher: security.NewHasher(cfg.Password, logg),
		Logger: logg,
	})
	if err != nil {
		return err
	}
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	assets, err := uploads.NewStore(cfg.Uploads, logg)
	if err != nil {
		return err
	}
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		DB:      dbClient,
		Assets:  assets,
		Metrics: metrics.NewInventoryMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	templates, err := views.NewTemplateCache()
	if err != nil {
		return err
	}

	params := routes.RouterParams{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Sessions:  sessions,
		Templates: templates,
		Flasher:   responses.NewFlasher(cfg.Session, logg),
		Auth:      authService,
		Inventory: inventoryService,
		Accounts:  users.NewRepository(dbClient.DB()),
		Registry:  registry,
	}
	if redisClient != nil {
		params.Redis = redisClient
		params.RateLimiter = redisClient
	}

	handler, err := routes.NewRouter(params)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            server.Addr,
		"db_dialect":      dbClient.Dialect(),
		"session_backend": cfg.Session.Backend,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}

func fileOptions(cfg config.LogConfig) *logger.FileOptions {
	path := cfg.Path()
	if path == "" {
		return nil
	}
	return &logger.FileOptions{
		Path:       path,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
