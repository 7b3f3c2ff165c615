package main

import (
	"context"
	"fmt"
	"log/slog"

	"shelfsync/internal/catalog"
	"shelfsync/internal/ledger"
	"shelfsync/internal/platform/config"
	"shelfsync/internal/platform/metrics"
	"shelfsync/internal/platform/postgres"
	platformredis "shelfsync/internal/platform/redis"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/reconcile/writer"
	"shelfsync/internal/rejects"
	"shelfsync/internal/runlock"
)

// app is the wired reconciler plus the resources it owns.
type app struct {
	service *reconcile.Service
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp constructs the production wiring: Postgres stores, the Redis run
// lock when configured (in-process otherwise), and the optional Kafka
// rejection feed.
func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { db.Close() })

	catalogStore := catalog.NewPostgres(db)
	ledgerStore := ledger.NewPostgres(db)
	rejectStore := rejects.NewPostgres(db)

	var locker runlock.Locker = runlock.NewMemoryLocker()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { redisClient.Close() })
		locker = runlock.NewRedisLocker(redisClient.Client)
	}

	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithMetrics(metrics.New()),
		reconcile.WithLockTTL(cfg.LockTTL),
	}
	publisher, err := rejects.NewPublisher(cfg.KafkaBrokers, cfg.RejectTopic)
	if err != nil {
		a.Close()
		return nil, err
	}
	if publisher != nil {
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, reconcile.WithPublisher(publisher))
	}

	service, err := reconcile.New(
		locker,
		catalogStore, catalogStore, catalogStore,
		ledgerStore, ledgerStore,
		rejectStore,
		writer.NewPostgres(db, ledgerStore, ledgerStore, catalogStore),
		opts...,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("wire reconcile service: %w", err)
	}
	a.service = service
	return a, nil
}
