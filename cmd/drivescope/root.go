package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"

	"github.com/damacus/drivescope/internal/aggregator"
	"github.com/damacus/drivescope/internal/cache"
	"github.com/damacus/drivescope/internal/config"
	"github.com/damacus/drivescope/internal/drive"
	"github.com/damacus/drivescope/internal/explorer"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "drivescope",
	Short: "Analyze Google Drive storage usage",
	Long: `DriveScope scans a Google Drive account, computes cumulative folder
sizes with persistent caching, and reports where the space went.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Verbose = true
		}

		var levels []logger.Level
		if cfg.Logging.Verbose {
			levels = logger.AllLevels()
		} else {
			levels = []logger.Level{logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel}
		}
		logger.Init(logger.Config{Levels: levels})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default drivescope.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// components bundles the core collaborators built from the configuration.
type components struct {
	cache      *cache.Cache
	client     drive.Client
	aggregator *aggregator.Aggregator
	explorer   *explorer.Explorer
}

// newComponents wires the cache, drive client, aggregator, and explorer.
// withClient false skips credential loading for cache-only commands.
func newComponents(ctx context.Context, withClient bool) (*components, error) {
	store, err := cache.New(cache.Options{
		Enabled:      cfg.Cache.Enabled,
		TTL:          cfg.Cache.TTL(),
		MaxSizeMB:    cfg.Cache.MaxSizeMB,
		DatabasePath: cfg.Cache.DatabasePath,
	})
	if err != nil {
		return nil, err
	}

	var client drive.Client
	if withClient {
		factory := &drive.GoogleClientFactory{
			CredentialsFile: cfg.Auth.CredentialsFile,
			TokenFile:       cfg.Auth.TokenFile,
		}
		client, err = factory.NewClient(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	agg := aggregator.New(aggregator.Options{
		Client:       client,
		Cache:        store,
		TTL:          cfg.Cache.TTL(),
		RetryBackoff: cfg.Aggregator.RetryBackoff(),
	})
	exp := explorer.New(explorer.Options{
		Client:       client,
		Cache:        store,
		Aggregator:   agg,
		PageSize:     cfg.API.PageSize,
		RequestDelay: cfg.API.RequestDelay(),
	})

	return &components{cache: store, client: client, aggregator: agg, explorer: exp}, nil
}

func (c *components) Close() {
	if err := c.cache.Close(); err != nil {
		logger.Warnf("close cache: %v", err)
	}
}
