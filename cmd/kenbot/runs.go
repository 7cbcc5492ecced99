package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenbot/inventory-sync/internal/config"
	"github.com/kenbot/inventory-sync/internal/db"
	"github.com/kenbot/inventory-sync/internal/observability"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "Show recent reconciliation runs",
	Long:  "Prints the most recent run reports from the audit log, newest first.",
	RunE:  runRunsCmd,
}

var runsLimit int

func init() {
	runsCommand.Flags().IntVar(&runsLimit, "limit", 10, "How many runs to show")
	rootCmd.AddCommand(runsCommand)
}

func runRunsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.FromEnv()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	reports, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	printer := observability.NewPrinter(os.Stdout)
	for i := range reports {
		printer.PrintReport(&reports[i])
	}
	return nil
}
