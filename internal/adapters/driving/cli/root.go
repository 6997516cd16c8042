// Package cli implements the solsync command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perseus-data/solsync/internal/adapters/driven/config/file"
	"github.com/perseus-data/solsync/internal/adapters/driven/feed"
	"github.com/perseus-data/solsync/internal/adapters/driven/storage/sqlite"
	"github.com/perseus-data/solsync/internal/core/ports/driving"
	"github.com/perseus-data/solsync/internal/core/services"
	"github.com/perseus-data/solsync/internal/fetchers"
	"github.com/perseus-data/solsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	configPath string
	dataDir    string
	verbose    bool
)

// Services wired by initServices. Package-level so commands share one
// wiring and tests can inject mocks.
var (
	syncOrchestrator driving.SyncOrchestrator
	statusReporter   driving.StatusReporter
	store            *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "solsync",
	Short: "Incremental sync of sol-indexed rover image feeds",
	Long: `solsync ingests photo records from rover image feeds into a local
database, tracking per-source progress by sol so each run picks up
where the previous one finished.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file path (default ~/.solsync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"database directory (default ~/.solsync/data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// initServices loads config and wires the full service graph. It is a
// no-op when services are already present (tests inject mocks).
func initServices() error {
	if syncOrchestrator != nil && statusReporter != nil {
		return nil
	}

	cfg, err := file.Load(configPath)
	if err != nil {
		return err
	}

	dir := dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	store, err = sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, feed.Options{
		Timeout:       cfg.RequestTimeout(),
		RatePerSecond: cfg.Feed.RatePerSecond,
	})
	writer := services.NewRecordWriter(store.RecordStore())
	registry := fetchers.NewRegistry(client, writer)
	resolver := services.NewPositionResolver(store.RecordStore())

	syncOrchestrator = services.NewOrchestrator(
		cfg.Sources,
		cfg.LookbackSols,
		cfg.StaleThreshold(),
		registry,
		resolver,
		store.ProgressStore(),
		store.RunStore(),
	)
	statusReporter = services.NewStatusService(
		cfg.Sources,
		store.RecordStore(),
		store.ProgressStore(),
		store.RunStore(),
	)

	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
