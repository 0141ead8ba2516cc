package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/estimator"
	"github.com/elkriver/inventory-cli/internal/inventory"
)

var (
	batchCSV     string
	batchLimit   int
	batchWorkers int
	batchOnline  bool
	batchDryRun  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Estimate values for a scraped inventory CSV and persist the records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		listings, err := inventory.ParseListingsCSV(batchCSV)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(listings) > batchLimit {
			listings = listings[:batchLimit]
		}

		if batchWorkers > 0 {
			cfg.Estimator.Workers = batchWorkers
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.Migrate(ctx); err != nil {
			return err
		}

		zap.L().Info("starting batch estimation",
			zap.Int("listings", len(listings)),
			zap.Int("workers", cfg.Estimator.Workers),
			zap.Bool("online", batchOnline),
		)

		tasks := estimator.TasksFromListings(listings, batchOnline)
		start := time.Now()
		results := env.Estimator.Run(ctx, tasks, func(completed, total int, status string) {
			fmt.Printf("[%d/%d] %s\n", completed, total, status)
		})

		var succeeded int
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		zap.L().Info("batch estimation complete",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", len(results)-succeeded),
			zap.Duration("elapsed", time.Since(start)),
		)

		if batchDryRun {
			fmt.Printf("dry run: %d of %d listings estimated, nothing persisted\n", succeeded, len(results))
			return nil
		}

		records := inventory.BuildRecords(listings, results, time.Now())
		saved, err := env.Store.SaveRecords(ctx, records)
		if err != nil {
			return eris.Wrap(err, "save records")
		}

		fmt.Printf("saved %d records (%d estimated, %d failed)\n", saved, succeeded, len(results)-succeeded)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to the scraped inventory CSV (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of listings to process (0 = all)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "override configured worker count")
	batchCmd.Flags().BoolVar(&batchOnline, "online", true, "blend in live marketplace listings")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "estimate without persisting records")
	batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
