package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garageflow/internal/infrastructure/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := postgres.UpMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		v, err := postgres.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		log.Infow("migrations applied", "version", v)
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
		return nil
	},
}
