// Package main is the entry point for the stockledger background worker.
// It relays outbox notifications to Redis and purges expired bookkeeping rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockledger/internal/config"
	"stockledger/internal/infrastructure/redis"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Storage != config.StoragePostgres {
		fmt.Println("worker requires postgres storage")
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

	log.Info("starting stockledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool, cfg.DB.StatementTimeout)

	w := &Worker{
		cfg:         cfg.Outbox,
		pool:        pool,
		idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		log:         log.WithComponent("worker"),
	}

	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()

		sink := redis.NewSink(client, cfg.Redis)
		w.relay = postgres.NewOutboxRelay(txm, cfg.Outbox.BatchSize,
			postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
				return sink.PublishRaw(ctx, msg.EventName, msg.Payload)
			}))
	} else {
		log.Warn("redis not configured, outbox relay disabled")
	}

	if err := w.Run(ctx); err != nil {
		log.Errorw("worker exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

// Worker runs the periodic background jobs.
type Worker struct {
	cfg         config.OutboxConfig
	pool        *postgres.Pool
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.relay != nil {
		g.Go(func() error {
			every(ctx, w.cfg.PollInterval, w.relayOutbox)
			return nil
		})
	}
	g.Go(func() error {
		every(ctx, w.cfg.CleanupInterval, w.cleanup)
		return nil
	})
	g.Go(func() error {
		every(ctx, 5*time.Minute, func(ctx context.Context) {
			postgres.LogPoolStats(ctx, w.pool)
		})
		return nil
	})

	return g.Wait()
}

// relayOutbox drains the outbox until a batch comes back short.
func (w *Worker) relayOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.WithContext(ctx).Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("relayed outbox batch", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	if w.relay == nil {
		return
	}
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("outbox dead-letter move failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("moved outbox messages to dead letter table", "count", n)
	}
	if n, err := w.relay.PurgePublished(ctx, w.cfg.Retention); err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
