package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/elkriver/inventory-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the marketplace listings cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(c.Stats()), "encode cache stats")
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}

		removed := c.ClearExpired()
		fmt.Printf("removed %d expired entries\n", removed)
		return nil
	},
}

func openCache() (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, eris.New("cache is disabled in configuration")
	}
	c, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours * float64(time.Hour)))
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}
	return c, nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	rootCmd.AddCommand(cacheCmd)
}
