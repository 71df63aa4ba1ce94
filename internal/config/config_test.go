package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.lantern", cfg.Home)
	assert.Equal(t, 3*time.Second, cfg.Security.AuthCooldown())
	assert.Equal(t, 5*time.Minute, cfg.Cache.Staleness())
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("valid file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
home: /tmp/lantern-test
security:
  auth_cooldown_ms: 1500
networks:
  - name: ethereum
    chain_id: 1
    symbol: ETH
    decimals: 18
    enabled: true
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/lantern-test", cfg.Home)
		assert.Equal(t, 1500*time.Millisecond, cfg.Security.AuthCooldown())
		require.Len(t, cfg.Networks, 1)
		assert.Equal(t, "ethereum", cfg.Networks[0].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.True(t, lanterr.Is(err, lanterr.ErrConfigNotFound))
	})

	t.Run("unknown key gets suggestion", func(t *testing.T) {
		path := writeConfig(t, "hom: /tmp/x\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, lanterr.Is(err, lanterr.ErrUnknownConfigKey))

		var le *lanterr.LanternError
		require.True(t, lanterr.As(err, &le))
		assert.Contains(t, le.Suggestion, `"home"`)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "networks: [\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("no enabled networks", func(t *testing.T) {
		cfg := Defaults()
		cfg.Networks = []Network{{Name: "x", Enabled: false}}
		assert.True(t, lanterr.Is(cfg.Validate(), lanterr.ErrConfigInvalid))
	})

	t.Run("duplicate network names", func(t *testing.T) {
		cfg := Defaults()
		cfg.Networks = []Network{
			{Name: "eth", Enabled: true},
			{Name: "eth", Enabled: true},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative cooldown", func(t *testing.T) {
		cfg := Defaults()
		cfg.Security.AuthCooldownMS = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("LANTERN_HOME", "/env/home")
	t.Setenv("LANTERN_LOG_LEVEL", "DEBUG")
	t.Setenv("LANTERN_AUTH_COOLDOWN_MS", "0")
	t.Setenv("LANTERN_ENGINE_COMMAND", "engine --dev")

	cfg := Defaults()
	require.NoError(t, ApplyEnvironment(cfg))

	assert.Equal(t, "/env/home", cfg.Home)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0, cfg.Security.AuthCooldownMS)
	assert.Equal(t, []string{"engine", "--dev"}, cfg.Engine.Command)
}

func TestEnabledNetworks(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	enabled := cfg.EnabledNetworks()
	require.Len(t, enabled, 1)
	assert.Equal(t, "ethereum", enabled[0].Name)
}

func TestSanitizeMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, lanterr.SanitizeDevelopment, LoggingConfig{Level: "debug"}.SanitizeMode())
	assert.Equal(t, lanterr.SanitizeDevelopment, LoggingConfig{Level: "trace"}.SanitizeMode())
	assert.Equal(t, lanterr.SanitizeStrict, LoggingConfig{Level: "error"}.SanitizeMode())
	assert.Equal(t, lanterr.SanitizeStrict, LoggingConfig{Level: ""}.SanitizeMode())
}
