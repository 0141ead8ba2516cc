package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elkriver/inventory-cli/internal/store"
)

var (
	reportSection      string
	reportManufacturer string
	reportLimit        int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the latest inventory snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := st.Summarize(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("listings:          %d\n", sum.TotalListings)
		fmt.Printf("with estimates:    %d\n", sum.WithEstimates)
		fmt.Printf("high confidence:   %d\n", sum.HighConfidence)
		fmt.Printf("over-priced:       %d\n", sum.OverPriced)
		fmt.Printf("under-priced:      %d\n", sum.UnderPriced)
		fmt.Printf("avg asking price:  $%.2f\n", sum.AvgPrice)
		fmt.Printf("avg estimated:     $%.2f\n", sum.AvgEstimatedValue)
		fmt.Printf("avg difference:    %.1f%%\n", sum.AvgDifferencePercent)
		fmt.Printf("total difference:  $%.2f\n", sum.TotalDifference)

		records, err := st.ListRecords(ctx, store.RecordFilter{
			Section:      reportSection,
			Manufacturer: reportManufacturer,
			LatestOnly:   true,
			Limit:        reportLimit,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		fmt.Println()
		for _, rec := range records {
			line := fmt.Sprintf("%-20s %-25s %-12s $%.2f", rec.Manufacturer, rec.Model, rec.Caliber, rec.Price)
			if rec.EstimatedValue != nil {
				line += fmt.Sprintf("  est $%.2f (%s)", *rec.EstimatedValue, rec.ValueConfidence)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportSection, "section", "", "filter by inventory section")
	reportCmd.Flags().StringVar(&reportManufacturer, "manufacturer", "", "filter by manufacturer")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 25, "max rows to print (0 = none)")
	rootCmd.AddCommand(reportCmd)
}
