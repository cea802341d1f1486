// Package main is the entry point for the stockledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockledger/internal/app"
	"stockledger/internal/config"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/metrics"
	"stockledger/internal/infrastructure/redis"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorw("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Infow("starting stockledger server", "storage", cfg.App.Storage, "env", cfg.App.Env)

	m := metrics.New()
	checks := map[string]handlers.Pinger{}

	// --- Storage ---
	var (
		storage app.Storage
		txm     *postgres.TxManager
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		storage = app.MemoryStorage(memory.New(), cfg.IdempotencyTTL)
		log.Warn("using in-memory storage, data is lost on restart")

	case config.StoragePostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
		poolCfg.MaxConns = cfg.DB.MaxConns
		poolCfg.MinConns = cfg.DB.MinConns
		poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
		poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, "up"); err != nil {
				return err
			}
			log.Info("migrations applied")
		}

		txm = postgres.NewTxManager(pool, cfg.DB.StatementTimeout)
		storage = app.PostgresStorage(pool, txm, cfg.IdempotencyTTL)

		m.GaugeFunc("db_pool_acquired_conns", "Connections currently acquired from the pool.", func() float64 {
			return float64(pool.Stats().AcquiredConns)
		})
		m.GaugeFunc("db_pool_idle_conns", "Idle connections in the pool.", func() float64 {
			return float64(pool.Stats().IdleConns)
		})
	}

	// --- Notifications ---
	hub := notify.NewHub(64)
	sinks := []notify.Sink{hub}
	engineOpts := []posting.Option{posting.WithObserver(m.Engine())}
	switch {
	case cfg.Notify.Outbox:
		engineOpts = append(engineOpts, posting.WithStager(postgres.NewOutboxStager(txm)))
		log.Info("stock events staged in outbox for the worker relay")
	case cfg.Redis.Enabled():
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		sinks = append(sinks, redis.NewSink(client, cfg.Redis))
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Infow("publishing notifications to redis",
			"stock_channel", cfg.Redis.StockChannel,
			"dashboard_channel", cfg.Redis.DashboardChannel)
	}

	dispatcher := notify.NewDispatcher(cfg.Notify.BufferSize, sinks...)
	dispatcher.Start()
	m.GaugeFunc("notify_dropped_total", "Notifications dropped because the queue was full.", func() float64 {
		return float64(dispatcher.Dropped())
	})
	m.GaugeFunc("notify_subscribers", "Open server-sent event streams.", func() float64 {
		return float64(hub.Subscribers())
	})

	// --- Auth ---
	var validator middleware.JWTValidator
	if cfg.App.AuthDisabled {
		log.Warn("authentication disabled, actor is taken from X-User-ID")
	} else {
		jwtService, err := auth.NewJWTService(auth.JWTConfig{
			Secret:         cfg.JWT.Secret,
			Issuer:         cfg.JWT.Issuer,
			AccessTokenTTL: cfg.JWT.TTL,
		})
		if err != nil {
			return err
		}
		validator = jwtService
	}

	// --- Router ---
	services := app.NewServices(storage, dispatcher, engineOpts...)
	router := v1.NewRouter(v1.RouterConfig{
		Services:     services,
		Storage:      storage,
		Logger:       log,
		JWTValidator: validator,
		Hub:          hub,
		Metrics:      m,
		Checks:       checks,
		Debug:        cfg.App.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server starting", "addr", cfg.App.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)

		// Requests are drained; flush queued notifications.
		dispatcher.Close()
		return err
	})

	return g.Wait()
}
