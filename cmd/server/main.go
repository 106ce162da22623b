// Package main is the entry point for the GarageFlow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"garageflow/internal/config"
	"garageflow/internal/domain/auth"
	v1 "garageflow/internal/infrastructure/http/v1"
	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/pkg/logger"
)

var version = "dev"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log.Infow("starting garageflow server", "version", version, "env", cfg.Env)

	// --- Database ---
	if err := postgres.UpMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	app, err := wire(cfg, pool, log)
	if err != nil {
		log.Fatalw("failed to wire services", "error", err)
	}

	// Draft autosave runs until shutdown, then flushes once more.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.autosaver.Run(ctx)
	}()

	// --- JWT ---
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "garageflow-development-secret-change-me"
	}
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		DB:           pool,
		Version:      version,
		Clients:      app.clients,
		Vehicles:     app.vehicles,
		Billing:      app.billing,
		RepairOrders: app.repairOrders,
		Settings:     app.settings,
		Drafts:       app.autosaver,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	cancel()
	wg.Wait()

	log.Info("server stopped")
}
