package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/domain/settings"
	infranumerator "garageflow/internal/infrastructure/numerator"
	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/internal/infrastructure/storage/postgres/settings_repo"
)

var (
	counterGarage   string
	counterCategory string
	counterNext     int64
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Inspect or repair document counters",
	Long: `Each garage keeps one counter per document category (quote, invoice).
Use "peek" to see the number the next document will receive and "set" to
move a counter after a numbering alert.`,
}

var counterPeekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Show the next number of a counter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		garageID, cat, err := counterTarget()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		txManager := postgres.NewTxManager(pool)
		next, err := infranumerator.NewFromTxManager(txManager).Peek(ctx, garageID, cat)
		if err != nil {
			return err
		}
		st, err := settings.NewService(settings_repo.New(txManager), nil).Get(ctx, garageID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s next=%d number=%s\n",
			garageID, cat, next, numerator.Format(st.Prefix(cat), next))
		return nil
	},
}

var counterSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Overwrite the next value of a counter",
	Example: `  # after an alert about F-00042 being stored without advancing the counter
  garagectl counter set --garage 0190c5e2-... --category invoice --next 43`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		garageID, cat, err := counterTarget()
		if err != nil {
			return err
		}
		if counterNext < numerator.FirstSequence {
			return fmt.Errorf("--next must be >= %d", numerator.FirstSequence)
		}
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		counter := infranumerator.NewFromTxManager(postgres.NewTxManager(pool))
		prev, err := counter.Peek(ctx, garageID, cat)
		if err != nil {
			return err
		}
		if err := counter.Set(ctx, garageID, cat, counterNext); err != nil {
			return err
		}
		if counterNext < prev {
			log.Warnw("counter moved backwards, numbers may collide", "garage_id", garageID, "category", cat, "from", prev, "to", counterNext)
		}
		log.Infow("counter set", "garage_id", garageID, "category", cat, "from", prev, "to", counterNext)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s next=%d (was %d)\n", garageID, cat, counterNext, prev)
		return nil
	},
}

func counterTarget() (id.ID, numerator.Category, error) {
	garageID, err := id.Parse(counterGarage)
	if err != nil {
		return id.ID{}, "", fmt.Errorf("invalid --garage: %w", err)
	}
	cat, err := numerator.ParseCategory(counterCategory)
	if err != nil {
		return id.ID{}, "", err
	}
	return garageID, cat, nil
}

func init() {
	for _, c := range []*cobra.Command{counterPeekCmd, counterSetCmd} {
		c.Flags().StringVar(&counterGarage, "garage", "", "garage id")
		c.Flags().StringVar(&counterCategory, "category", "", "quote or invoice")
		_ = c.MarkFlagRequired("garage")
		_ = c.MarkFlagRequired("category")
	}
	counterSetCmd.Flags().Int64Var(&counterNext, "next", 0, "next sequence value")
	_ = counterSetCmd.MarkFlagRequired("next")

	counterCmd.AddCommand(counterPeekCmd, counterSetCmd)
}
