package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/damacus/drivescope/internal/aggregator"
	"github.com/damacus/drivescope/internal/explorer"
	"github.com/damacus/drivescope/internal/utils"
)

var (
	scanNoCache     bool
	scanForce       bool
	scanIncremental bool
	scanNoSizes     bool
	scanLimit       int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the account and print a usage summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		opts := explorer.ScanOptions{
			UseCache:       !scanNoCache,
			CalculateSizes: !scanNoSizes,
			Force:          scanForce,
			Incremental:    scanIncremental,
		}
		structure, err := c.explorer.ScanCompleteDrive(cmd.Context(), opts, func(percent int, phase string) {
			fmt.Printf("\r%3d%% %-12s", percent, phase)
		})
		fmt.Println()
		if err != nil {
			return err
		}

		stats := structure.Stats()
		fmt.Printf("Files:   %d\n", stats.TotalFiles)
		fmt.Printf("Folders: %d\n", stats.TotalFolders)
		fmt.Printf("Total:   %s\n", utils.FormatFileSize(stats.TotalSize))
		if stats.ScanErrors > 0 {
			fmt.Printf("Errors:  %d\n", stats.ScanErrors)
		}

		if !scanNoSizes {
			fmt.Printf("\nLargest folders:\n")
			for _, folder := range aggregator.LargestFolders(structure, scanLimit) {
				fmt.Printf("  %10s  %s\n", utils.FormatFileSize(folder.DisplaySize()), folder.Path)
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "ignore the cached snapshot")
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "recompute every folder")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "recompute only stale folders")
	scanCmd.Flags().BoolVar(&scanNoSizes, "no-sizes", false, "skip size aggregation")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 10, "number of folders to list")
	rootCmd.AddCommand(scanCmd)
}
