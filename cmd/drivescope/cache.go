package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/damacus/drivescope/internal/utils"
)

var clearExpiredOnly bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer c.Close()

		stats := c.cache.Stats()
		if !stats.Enabled {
			fmt.Println("Cache is disabled")
			return nil
		}
		fmt.Printf("Database:   %s\n", stats.DatabasePath)
		fmt.Printf("Items:      %d\n", stats.ItemCount)
		fmt.Printf("Structures: %d\n", stats.StructCount)
		fmt.Printf("Expired:    %d\n", stats.ExpiredCount)
		fmt.Printf("Payload:    %s\n", utils.FormatFileSize(stats.TotalBytes))
		fmt.Printf("Size:       %s\n", utils.FormatFileSize(stats.DatabaseBytes))
		fmt.Printf("TTL:        %.0f hours\n", stats.TTLHours)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer c.Close()

		if clearExpiredOnly {
			removed := c.cache.ClearExpired()
			fmt.Printf("Cleared %d expired entries\n", removed)
			return nil
		}
		c.cache.ClearAll()
		fmt.Println("Cache cleared")
		return nil
	},
}

var cacheOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Clear expired entries and compact the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer c.Close()

		c.cache.Optimize()
		fmt.Printf("Database size: %s\n", utils.FormatFileSize(c.cache.Stats().DatabaseBytes))
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&clearExpiredOnly, "expired-only", false, "remove only expired entries")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheOptimizeCmd)
	rootCmd.AddCommand(cacheCmd)
}
