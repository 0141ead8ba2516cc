package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/elkriver/inventory-cli/internal/cache"
	"github.com/elkriver/inventory-cli/internal/estimator"
	"github.com/elkriver/inventory-cli/internal/model"
	"github.com/elkriver/inventory-cli/pkg/armslist"
)

var estimateOnline bool

var estimateCmd = &cobra.Command{
	Use:   "estimate MANUFACTURER MODEL [CALIBER]",
	Short: "Estimate the market value of a single firearm",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		caliber := ""
		if len(args) == 3 {
			caliber = args[2]
		}

		var listingsCache *cache.Cache
		if cfg.Cache.Enabled {
			var err error
			listingsCache, err = cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours * float64(time.Hour)))
			if err != nil {
				return eris.Wrap(err, "init cache")
			}
		}

		client := armslist.NewClient(
			armslist.WithBaseURL(cfg.Market.BaseURL),
			armslist.WithTimeout(time.Duration(cfg.Market.TimeoutSecs)*time.Second),
			armslist.WithMaxRetries(cfg.Market.MaxRetries),
		)

		est := estimator.New(client, listingsCache, estimator.Options{
			Workers:        1,
			RateLimitDelay: time.Duration(cfg.Estimator.RateLimitDelaySecs * float64(time.Second)),
		})

		tasks := []model.EstimationTask{{
			Manufacturer:     args[0],
			Model:            args[1],
			Caliber:          caliber,
			UseOnlineSources: estimateOnline,
		}}

		results := est.Run(ctx, tasks, nil)
		result := results[0]
		if !result.Success {
			return eris.Errorf("estimation failed: %s", result.Error)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result.ValueInfo), "encode estimate")
	},
}

func init() {
	estimateCmd.Flags().BoolVar(&estimateOnline, "online", true, "blend in live marketplace listings")
	rootCmd.AddCommand(estimateCmd)
}
