package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prodsched/app/plugins"
	"github.com/kilianp07/prodsched/config"
	"github.com/kilianp07/prodsched/core/store"
)

var seedDate string

var seedCmd = &cobra.Command{
	Use:   "seed [dataset]",
	Short: "Load a dataset file, or the demo dataset, into the configured store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedDate, "date", "d", "", "day of the demo orders (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Backend == "memory" {
		return fmt.Errorf("seed requires a persistent store backend")
	}
	var d store.Dataset
	if len(args) == 1 {
		if d, err = store.LoadDataset(args[0]); err != nil {
			return err
		}
	} else {
		date, err := parseDate(seedDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		d = store.DemoDataset(date)
	}
	st, err := plugins.NewStore(cfg.Store.Backend, map[string]any{"path": cfg.Store.Path})
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	seeder, ok := st.(store.Seeder)
	if !ok {
		return fmt.Errorf("store %s cannot be seeded", cfg.Store.Backend)
	}
	if err := seeder.Seed(context.Background(), d); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d workers, %d areas, %d orders\n", len(d.Workers), len(d.Areas), len(d.Orders))
	return err
}
