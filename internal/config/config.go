// Package config provides configuration loading and validation for the CLI.
// The core engine never reads environment state itself; this package resolves
// file, environment, and flag values into explicit options handed in.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional in the file; required values are enforced by
// Validate after merging with flags and environment.
type Config struct {
	// External endpoints
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	ListingsURL  string `json:"listings_url,omitempty"`  // Listing feed base URL
	GatewayURL   string `json:"gateway_url,omitempty"`   // Social post gateway base URL
	GatewayToken string `json:"gateway_token,omitempty"` // Bearer token for the gateway
	StickerURL   string `json:"sticker_url,omitempty"`   // Window sticker source base URL

	// Run behavior. The bool fields are pointers so an explicit false from a
	// higher layer (a flag) is distinguishable from "not set" and is not
	// clobbered by a true from a lower layer (env).
	DryRun       *bool  `json:"dry_run,omitempty"`
	MaxTargets   int    `json:"max_targets,omitempty"`
	ForceStock   string `json:"force_stock,omitempty"`
	Rebuild      *bool  `json:"rebuild,omitempty"`
	RebuildLimit int    `json:"rebuild_limit,omitempty"`
	Verbose      *bool  `json:"verbose,omitempty"`

	// Tuning
	Workers     int     `json:"workers,omitempty"`      // concurrent post-sync workers
	GatewayRPS  float64 `json:"gateway_rps,omitempty"`  // gateway rate limit (requests/sec)
	TimeoutSecs int     `json:"timeout_secs,omitempty"` // external call timeout
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. The original
// option surface is kept: KENBOT_DRY_RUN, KENBOT_MAX_TARGETS,
// KENBOT_FORCE_STOCK, KENBOT_REBUILD_POSTS, KENBOT_REBUILD_LIMIT, plus the
// endpoint variables.
func FromEnv() Config {
	return Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ListingsURL:  os.Getenv("KENBOT_BASE_URL"),
		GatewayURL:   os.Getenv("KENBOT_GATEWAY_URL"),
		GatewayToken: os.Getenv("KENBOT_GATEWAY_TOKEN"),
		StickerURL:   os.Getenv("KENBOT_STICKER_URL"),
		DryRun:       envBool("KENBOT_DRY_RUN"),
		MaxTargets:   envInt("KENBOT_MAX_TARGETS"),
		ForceStock:   os.Getenv("KENBOT_FORCE_STOCK"),
		Rebuild:      envBool("KENBOT_REBUILD_POSTS"),
		RebuildLimit: envInt("KENBOT_REBUILD_LIMIT"),
		Workers:      envInt("KENBOT_WORKERS"),
	}
}

// Validate checks that the configuration has everything a run needs.
// Missing external credentials or endpoints are fatal before the run starts.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}
	if c.ListingsURL == "" {
		return fmt.Errorf("config error: 'listings_url' is required (or set KENBOT_BASE_URL)")
	}
	if c.GatewayURL == "" && !Enabled(c.DryRun) {
		return fmt.Errorf("config error: 'gateway_url' is required unless running with dry_run")
	}
	if c.MaxTargets < 0 {
		return fmt.Errorf("config error: 'max_targets' must be non-negative")
	}
	if c.RebuildLimit < 0 {
		return fmt.Errorf("config error: 'rebuild_limit' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to layer flag values over file and env values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ListingsURL == "" {
		result.ListingsURL = defaults.ListingsURL
	}
	if result.GatewayURL == "" {
		result.GatewayURL = defaults.GatewayURL
	}
	if result.GatewayToken == "" {
		result.GatewayToken = defaults.GatewayToken
	}
	if result.StickerURL == "" {
		result.StickerURL = defaults.StickerURL
	}
	if result.ForceStock == "" {
		result.ForceStock = defaults.ForceStock
	}

	if result.MaxTargets == 0 {
		result.MaxTargets = defaults.MaxTargets
	}
	if result.RebuildLimit == 0 {
		result.RebuildLimit = defaults.RebuildLimit
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.GatewayRPS == 0 {
		result.GatewayRPS = defaults.GatewayRPS
	}
	if result.TimeoutSecs == 0 {
		result.TimeoutSecs = defaults.TimeoutSecs
	}

	if result.DryRun == nil {
		result.DryRun = defaults.DryRun
	}
	if result.Rebuild == nil {
		result.Rebuild = defaults.Rebuild
	}
	if result.Verbose == nil {
		result.Verbose = defaults.Verbose
	}

	return result
}

// Bool returns a pointer to v, for setting the tri-state bool fields.
func Bool(v bool) *bool {
	return &v
}

// Enabled reports whether a tri-state bool field was set to true.
func Enabled(b *bool) bool {
	return b != nil && *b
}

// envBool returns nil when the variable is unset or blank, so an absent
// environment value never overrides a layer above it.
func envBool(key string) *bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return Bool(true)
	default:
		return Bool(false)
	}
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
