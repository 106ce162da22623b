// Package main is the entry point for the GarageFlow background worker.
// It relays the outbox to Kafka and flips overdue invoices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"garageflow/internal/config"
	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/settings"
	"garageflow/internal/infrastructure/messaging"
	infranumerator "garageflow/internal/infrastructure/numerator"
	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/internal/infrastructure/storage/postgres/document_repo"
	"garageflow/internal/infrastructure/storage/postgres/settings_repo"
	"garageflow/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting garageflow worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 4
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	var handler postgres.OutboxHandler = messaging.LogHandler{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := messaging.NewKafkaPublisher(messaging.NewWriter(cfg.Kafka.Brokers), cfg.Kafka.Topic)
		defer publisher.Close()
		handler = publisher
		log.Infow("relaying outbox to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		log.Warn("KAFKA_BROKERS not set, outbox events are logged only")
	}

	strategy, err := cfg.Strategy()
	if err != nil {
		log.Fatalw("invalid numbering strategy", "error", err)
	}
	outbox := postgres.NewOutboxPublisher(txManager)
	billingService := billing.NewService(billing.Config{
		Repo:      document_repo.NewBillingRepo(txManager),
		Counter:   infranumerator.NewFromTxManager(txManager),
		Settings:  settings.NewService(settings_repo.New(txManager), nil),
		TxManager: txManager,
		Strategy:  strategy,
		Events:    outbox,
	})

	w := &worker{
		relay:     postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, handler),
		billing:   billingService,
		pool:      pool,
		log:       log.WithComponent("worker"),
		poll:      cfg.Outbox.PollInterval,
		retention: time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
