package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenbot/inventory-sync/internal/config"
	"github.com/kenbot/inventory-sync/internal/db"
	"github.com/kenbot/inventory-sync/internal/postsync"
	"github.com/kenbot/inventory-sync/internal/types"
)

var rebuildCommand = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the post map from post history, without reconciling",
	Long: `Walks the gateway's most recent posts, extracts the embedded stock marker
from each, and overwrites the local post map. Recovery path for when the
stored mapping is lost or suspect; run it before the next normal pass.`,
	RunE: runRebuildCmd,
}

var (
	rebuildLimit      int
	rebuildConfigPath string
)

func init() {
	rebuildCommand.Flags().IntVar(&rebuildLimit, "limit", types.DefaultRebuildLimit, "How many recent posts to walk")
	rebuildCommand.Flags().StringVar(&rebuildConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(rebuildCommand)
}

func runRebuildCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Config{RebuildLimit: rebuildLimit}
	if rebuildConfigPath != "" {
		loaded, err := config.LoadConfig(rebuildConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = cfg.MergeWithDefaults(*loaded)
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}
	if cfg.GatewayURL == "" {
		return fmt.Errorf("config error: 'gateway_url' is required for rebuild")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	syncer := postsync.New(buildGateway(cfg, timeout), database, nil, false)

	count, err := syncer.Rebuild(ctx, cfg.RebuildLimit)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Printf("Rebuilt %d post entries from the %d most recent posts\n", count, cfg.RebuildLimit)
	return nil
}
