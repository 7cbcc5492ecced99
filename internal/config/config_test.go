package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Success(t *testing.T) {
	path := writeConfigFile(t, `{
		"database_url": "postgres://localhost/kenbot",
		"listings_url": "https://dealer.example.com",
		"gateway_url": "https://gateway.example.com",
		"max_targets": 5,
		"dry_run": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/kenbot", cfg.DatabaseURL)
	assert.Equal(t, "https://dealer.example.com", cfg.ListingsURL)
	assert.Equal(t, 5, cfg.MaxTargets)
	assert.True(t, Enabled(cfg.DryRun))
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "{not json")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestFromEnv_ReadsKenbotVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kenbot")
	t.Setenv("KENBOT_BASE_URL", "https://dealer.example.com")
	t.Setenv("KENBOT_GATEWAY_URL", "https://gateway.example.com")
	t.Setenv("KENBOT_DRY_RUN", "true")
	t.Setenv("KENBOT_MAX_TARGETS", "7")
	t.Setenv("KENBOT_FORCE_STOCK", "K1234")
	t.Setenv("KENBOT_REBUILD_POSTS", "1")
	t.Setenv("KENBOT_REBUILD_LIMIT", "100")

	cfg := FromEnv()
	assert.Equal(t, "postgres://localhost/kenbot", cfg.DatabaseURL)
	assert.Equal(t, "https://dealer.example.com", cfg.ListingsURL)
	assert.True(t, Enabled(cfg.DryRun))
	assert.Equal(t, 7, cfg.MaxTargets)
	assert.Equal(t, "K1234", cfg.ForceStock)
	assert.True(t, Enabled(cfg.Rebuild))
	assert.Equal(t, 100, cfg.RebuildLimit)
}

func TestFromEnv_BoolSpellings(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on", "T"} {
		t.Setenv("KENBOT_DRY_RUN", v)
		assert.True(t, Enabled(FromEnv().DryRun), "value %q", v)
	}
	for _, v := range []string{"0", "false", "no", "off", "banana"} {
		t.Setenv("KENBOT_DRY_RUN", v)
		cfg := FromEnv()
		require.NotNil(t, cfg.DryRun, "value %q", v)
		assert.False(t, *cfg.DryRun, "value %q", v)
	}

	t.Setenv("KENBOT_DRY_RUN", "")
	assert.Nil(t, FromEnv().DryRun, "blank means unset, not false")
}

func TestFromEnv_BadIntIgnored(t *testing.T) {
	t.Setenv("KENBOT_MAX_TARGETS", "lots")
	assert.Zero(t, FromEnv().MaxTargets)
}

func TestValidate_RequiredFields(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	cfg.DatabaseURL = "postgres://localhost/kenbot"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listings_url")

	cfg.ListingsURL = "https://dealer.example.com"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway_url")

	cfg.GatewayURL = "https://gateway.example.com"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DryRunWaivesGateway(t *testing.T) {
	cfg := Config{
		DatabaseURL: "postgres://localhost/kenbot",
		ListingsURL: "https://dealer.example.com",
		DryRun:      Bool(true),
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeValuesRejected(t *testing.T) {
	base := Config{
		DatabaseURL: "postgres://localhost/kenbot",
		ListingsURL: "https://dealer.example.com",
		GatewayURL:  "https://gateway.example.com",
	}

	cfg := base
	cfg.MaxTargets = -1
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.RebuildLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Workers = -1
	assert.Error(t, cfg.Validate())
}

func TestMergeWithDefaults_FlagsWinOverDefaults(t *testing.T) {
	flags := Config{
		DatabaseURL: "postgres://flag/db",
		MaxTargets:  3,
	}
	defaults := Config{
		DatabaseURL:  "postgres://file/db",
		ListingsURL:  "https://dealer.example.com",
		GatewayURL:   "https://gateway.example.com",
		MaxTargets:   9,
		RebuildLimit: 250,
		DryRun:       Bool(true),
	}

	merged := flags.MergeWithDefaults(defaults)
	assert.Equal(t, "postgres://flag/db", merged.DatabaseURL, "explicit value wins")
	assert.Equal(t, "https://dealer.example.com", merged.ListingsURL, "gaps fill from defaults")
	assert.Equal(t, 3, merged.MaxTargets)
	assert.Equal(t, 250, merged.RebuildLimit)
	assert.True(t, Enabled(merged.DryRun), "unset dry run fills from defaults")
}

func TestMergeWithDefaults_ExplicitFalseBeatsEnvTrue(t *testing.T) {
	flags := Config{DryRun: Bool(false)}
	env := Config{DryRun: Bool(true), Rebuild: Bool(true)}

	merged := flags.MergeWithDefaults(env)
	require.NotNil(t, merged.DryRun)
	assert.False(t, *merged.DryRun, "--dry-run=false must override KENBOT_DRY_RUN=1")
	assert.True(t, Enabled(merged.Rebuild), "untouched fields still fill from below")
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(nil))
	assert.False(t, Enabled(Bool(false)))
	assert.True(t, Enabled(Bool(true)))
}
