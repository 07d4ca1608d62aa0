package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/de-tools/cur-atlas/pkg/adapters"
	"github.com/de-tools/cur-atlas/pkg/services/config"
	"github.com/de-tools/cur-atlas/pkg/services/cost"
	"github.com/de-tools/cur-atlas/pkg/store/duckdb"
	curstore "github.com/de-tools/cur-atlas/pkg/store/duckdb/cur"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Inspection CLI over the same store the web server uses. Every command
// prints JSON to stdout.
func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "cur-atlas",
		Short: "Inspect the ingested cost-and-usage table",
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the config file (optional)")

	rootCmd.AddCommand(
		newRegionCmd(&cfgPath),
		newSummaryCmd(&cfgPath),
		newDiscountsCmd(&cfgPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRegionCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "region <region-code>",
		Short: "List line items for a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, _, cleanup, err := setup(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := executor.RowsByRegion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(adapters.MapLineItemsStoreToApi(rows))
		},
	}
}

func newSummaryCmd(cfgPath *string) *cobra.Command {
	var from, until string

	cmd := &cobra.Command{
		Use:   "summary <region-code>",
		Short: "Cost summary for a region between two dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, _, cleanup, err := setup(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			fromDate, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
			untilDate, err := time.Parse("2006-01-02", until)
			if err != nil {
				return fmt.Errorf("invalid --until date: %w", err)
			}

			summary, err := executor.CostSummaryBetween(cmd.Context(), args[0], fromDate, untilDate)
			if err != nil {
				return err
			}
			return printJSON(adapters.MapCostSummaryStoreToApi(*summary))
		},
	}
	cmd.Flags().StringVar(&from, "from", "2023-01-01", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", time.Now().Format("2006-01-02"), "Window end date (YYYY-MM-DD)")
	return cmd
}

func newDiscountsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "discounts",
		Short: "Cost/discount records for every discovered resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, enricher, cleanup, err := setup(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			records := enricher.EnrichAll(cmd.Context())
			return printJSON(adapters.MapResourceCostDiscountsStoreToApi(records))
		},
	}
}

func setup(cmd *cobra.Command, cfgPath string) (*cost.Executor, *cost.Enricher, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Store.DbPath})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open DuckDB instance: %w", err)
	}

	store, err := curstore.NewStore(db, curstore.Options{
		RowLimit:   cfg.Query.RowLimit,
		GroupLimit: cfg.Query.GroupLimit,
	})
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	if err := store.EnsureTable(ctx, cfg.Store.SourcePath); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to ingest source export: %w", err)
	}

	cleanup := func() { _ = db.Close() }
	return cost.NewExecutor(store), cost.NewEnricher(store, cfg.Query.EnrichWorkers), cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
