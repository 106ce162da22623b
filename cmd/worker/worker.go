package main

import (
	"context"
	"sync"
	"time"

	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/pkg/logger"
)

const (
	overdueInterval = 15 * time.Minute
	cleanupInterval = time.Hour
)

type overdueMarker interface {
	MarkOverdue(ctx context.Context) (int, error)
}

type outboxRelay interface {
	Run(ctx context.Context, interval time.Duration)
	PurgePublished(ctx context.Context, age time.Duration) (int64, error)
}

type statsLogger interface {
	LogStats(ctx context.Context)
}

type worker struct {
	relay     outboxRelay
	billing   overdueMarker
	pool      statsLogger
	log       *logger.Logger
	poll      time.Duration
	retention time.Duration
}

var _ outboxRelay = (*postgres.OutboxRelay)(nil)

// Run starts the relay loop and the periodic jobs and blocks until ctx is done.
func (w *worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.relay.Run(ctx, w.poll)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.periodic(ctx)
	}()

	wg.Wait()
}

func (w *worker) periodic(ctx context.Context) {
	overdue := time.NewTicker(overdueInterval)
	defer overdue.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	w.markOverdue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-overdue.C:
			w.markOverdue(ctx)
		case <-cleanup.C:
			w.cleanup(ctx)
		}
	}
}

func (w *worker) markOverdue(ctx context.Context) {
	n, err := w.billing.MarkOverdue(ctx)
	if err != nil {
		w.log.Errorw("failed to mark overdue invoices", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("invoices marked overdue", "count", n)
	}
}

func (w *worker) cleanup(ctx context.Context) {
	if w.retention > 0 {
		n, err := w.relay.PurgePublished(ctx, w.retention)
		if err != nil {
			w.log.Errorw("failed to purge outbox", "error", err)
		} else if n > 0 {
			w.log.Infow("purged published outbox messages", "count", n)
		}
	}
	if w.pool != nil {
		w.pool.LogStats(ctx)
	}
}
