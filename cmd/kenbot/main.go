// Package main provides the entry point for the kenbot inventory sync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kenbot",
	Short: "Dealership inventory to social post synchronizer",
	Long:  "kenbot diffs the scraped vehicle inventory against known state, publishes new vehicles, marks sold ones, restores re-listed ones, and keeps prices current, while caching window sticker documents.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
