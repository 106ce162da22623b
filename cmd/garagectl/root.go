package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"garageflow/internal/config"
	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/pkg/logger"
)

var version = "dev"

var (
	envFile  string
	logLevel string
	log      *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "garagectl",
	Short: "Operator tools for GarageFlow",
	Long: `garagectl runs maintenance tasks against a GarageFlow database:
schema migrations, inspection and repair of document counters, and
offline computation of document totals.

Configuration is read from the environment and an optional .env file,
the same way the server does.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logger.Config{Level: logLevel, Development: true, OutputPaths: []string{"stderr"}})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(counterCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openPool connects with a small pool; CLI commands run a handful of queries.
func openPool(ctx context.Context, cfg config.Config) (*postgres.Pool, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 0
	return postgres.NewPool(ctx, poolCfg)
}
