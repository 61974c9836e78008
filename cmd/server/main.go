// Package main is the entry point for the custom fields API server.
// All tenants share one database; rows are keyed by tenant id.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"customfields/internal/config"
	"customfields/internal/domain/auth"
	"customfields/internal/domain/customfield"
	v1 "customfields/internal/infrastructure/http/v1"
	"customfields/internal/infrastructure/http/v1/handlers"
	"customfields/internal/infrastructure/metrics"
	"customfields/internal/infrastructure/numerator"
	"customfields/internal/infrastructure/storage/postgres"
	"customfields/pkg/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting customfields server", "version", version, "env", cfg.Server.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	txm := postgres.NewTxManager(pool, cfg.Database.MaxRetries)
	store := postgres.NewCustomFieldStore(txm)
	allocator := numerator.NewWithQuerierFunc(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})

	// --- Domain ---
	service := customfield.NewService(customfield.ServiceConfig{
		Store:     store,
		Allocator: allocator,
		Limits:    cfg.CustomFieldLimits(),
	})

	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		return err
	}
	defer auditService.Close()
	auditService.RegisterHooks(service.Hooks())

	m := metrics.NewWithRegistry(prometheus.DefaultRegisterer, log)
	m.RegisterHooks(service.Hooks())
	go m.CollectPoolStats(ctx, 15*time.Second, pool.Stats)

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Service:      service,
		History:      auditService,
		Health:       handlers.NewHealthHandler(pool, pool.Stats, version),
		Logger:       log,
		Metrics:      m,
		AuthRequired: cfg.Auth.Enabled,
		Release:      !cfg.IsDevelopment(),
	}
	if cfg.Auth.JWTSecret != "" {
		jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		if cfg.Auth.Issuer != "" {
			jwtCfg.Issuer = cfg.Auth.Issuer
		}
		routerCfg.JWTValidator = auth.NewJWTService(jwtCfg)
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Server.Port, "auth", cfg.Auth.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful shutdown ---
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
