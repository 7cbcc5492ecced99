package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenbot/inventory-sync/internal/config"
	"github.com/kenbot/inventory-sync/internal/db"
	"github.com/kenbot/inventory-sync/internal/gateway"
	"github.com/kenbot/inventory-sync/internal/runner"
	"github.com/kenbot/inventory-sync/internal/scrape"
	"github.com/kenbot/inventory-sync/internal/stickers"
	"github.com/kenbot/inventory-sync/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one full reconciliation pass",
	Long: `Runs the full pass: optional post map rebuild, listing snapshot, lifecycle
classification (NEW / SOLD / RESTORED / PRICE_CHANGED), post mutations, and
sticker caching.

Configuration can be loaded from a JSON file using --config; environment
variables fill in anything the file and flags leave unset.`,
	RunE: runReconcileCmd,
}

var (
	runConfigPath   string
	runDryRun       bool
	runMaxTargets   int
	runForceStock   string
	runRebuild      bool
	runRebuildLimit int
	runVerbose      bool
	runDatabaseURL  string
	runInitSchema   bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Classify and log only; suppress all external mutations")
	runCommand.Flags().IntVar(&runMaxTargets, "max-targets", 0, "Cap on NEW/PRICE_CHANGED events applied this run (0 = unlimited)")
	runCommand.Flags().StringVar(&runForceStock, "force-stock", "", "Narrow the run to a single stock id (manual verification)")
	runCommand.Flags().BoolVar(&runRebuild, "rebuild", false, "Rebuild the post map from post history before reconciling")
	runCommand.Flags().IntVar(&runRebuildLimit, "rebuild-limit", 0, "How many recent posts the rebuild walks (default 300)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed plan and summary output")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().BoolVar(&runInitSchema, "init-schema", false, "Create database tables if they do not exist")

	rootCmd.AddCommand(runCommand)
}

func runReconcileCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if runInitSchema {
		if err := database.Init(ctx); err != nil {
			return err
		}
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	provider, err := scrape.NewHTTPProvider(cfg.ListingsURL, timeout)
	if err != nil {
		return err
	}

	deps := runner.Deps{
		State:    database,
		Posts:    database,
		Provider: provider,
		Gateway:  buildGateway(cfg, timeout),
		Workers:  cfg.Workers,
	}
	if cfg.StickerURL != "" {
		deps.Stickers = stickers.NewManager(database, stickers.NewHTTPSource(cfg.StickerURL, timeout))
	}

	opts := types.Options{
		DryRun:       config.Enabled(cfg.DryRun),
		MaxTargets:   cfg.MaxTargets,
		ForceStock:   cfg.ForceStock,
		Rebuild:      config.Enabled(cfg.Rebuild),
		RebuildLimit: cfg.RebuildLimit,
		Verbose:      config.Enabled(cfg.Verbose),
	}

	report, err := runner.Run(ctx, deps, opts)
	if err != nil {
		if report != nil && report.Applied() > 0 {
			return fmt.Errorf("run failed after partial completion (%d events applied): %w", report.Applied(), err)
		}
		return err
	}
	return nil
}

// resolveConfig layers flag values over config file values over environment
// values, then validates the result. Bool flags only participate when they
// were passed on the command line, so --dry-run=false beats KENBOT_DRY_RUN=1
// while an omitted flag does not.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Config{
		DatabaseURL:  runDatabaseURL,
		MaxTargets:   runMaxTargets,
		ForceStock:   runForceStock,
		RebuildLimit: runRebuildLimit,
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = config.Bool(runDryRun)
	}
	if cmd.Flags().Changed("rebuild") {
		cfg.Rebuild = config.Bool(runRebuild)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = config.Bool(runVerbose)
	}

	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = cfg.MergeWithDefaults(*loaded)
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildGateway wires the configured endpoint behind the rate-limited wrapper.
// Dry runs without a configured gateway fall back to an in-memory one, which
// is safe because a dry run never issues writes.
func buildGateway(cfg config.Config, timeout time.Duration) *gateway.Throttled {
	throttle := gateway.ThrottledConfig{
		RPS:         cfg.GatewayRPS,
		CallTimeout: timeout,
	}
	if cfg.GatewayURL == "" {
		return gateway.NewThrottled(gateway.NewInMemory(), throttle)
	}
	return gateway.NewThrottled(gateway.NewHTTPJSON(cfg.GatewayURL, cfg.GatewayToken, timeout), throttle)
}
