package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenbot/inventory-sync/internal/config"
	"github.com/kenbot/inventory-sync/internal/db"
	"github.com/kenbot/inventory-sync/internal/stickers"
)

var stickerCommand = &cobra.Command{
	Use:   "sticker <vin>",
	Short: "Fetch (or retrieve) the cached window sticker for a VIN",
	Long: `Ensures the window sticker document for the given VIN is cached, fetching it
from the configured source on first use, and writes the document to a file.
Later invocations for the same VIN are served from the cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runStickerCmd,
}

var stickerOutPath string

func init() {
	stickerCommand.Flags().StringVarP(&stickerOutPath, "out", "o", "", "Output file (defaults to <vin>.pdf)")
	rootCmd.AddCommand(stickerCommand)
}

func runStickerCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	vin := args[0]

	cfg := config.FromEnv()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}
	if cfg.StickerURL == "" {
		return fmt.Errorf("config error: 'sticker_url' is required (or set KENBOT_STICKER_URL)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	manager := stickers.NewManager(database, stickers.NewHTTPSource(cfg.StickerURL, timeout))

	entry, err := manager.EnsureCached(ctx, vin)
	if err != nil {
		return err
	}

	doc, err := database.GetStickerDocument(ctx, entry.VIN)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("sticker entry exists for %s but the document is missing", entry.VIN)
	}

	outPath := stickerOutPath
	if outPath == "" {
		outPath = entry.VIN + ".pdf"
	}
	if err := os.WriteFile(outPath, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write sticker document: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s (fetched %s)\n", len(doc), outPath, entry.FetchedAt.Format(time.RFC3339))
	return nil
}
