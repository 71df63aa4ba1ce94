// Package config provides configuration management for Lantern.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Engine   EngineConfig   `yaml:"engine"`
	Networks []Network      `yaml:"networks"`
	Security SecurityConfig `yaml:"security"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EngineConfig describes how to launch and talk to the wallet engine.
type EngineConfig struct {
	// Command is the engine executable plus arguments.
	Command []string `yaml:"command"`
	// StartTimeoutSeconds bounds only the engine process launch, not calls.
	StartTimeoutSeconds int `yaml:"start_timeout_seconds"`
}

// Network describes one chain the engine serves.
type Network struct {
	Name     string `yaml:"name"`
	ChainID  int    `yaml:"chain_id"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
	Enabled  bool   `yaml:"enabled"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	// AuthCooldownMS is the fail-fast window after a failed authentication.
	AuthCooldownMS int `yaml:"auth_cooldown_ms"`
	// MemoryLock controls best-effort mlock of seed buffers.
	MemoryLock bool `yaml:"memory_lock"`
}

// CacheConfig defines derived-data cache settings.
type CacheConfig struct {
	StalenessMinutes int `yaml:"staleness_minutes"`
	// RefreshRatePerSecond throttles engine balance calls per network.
	RefreshRatePerSecond float64 `yaml:"refresh_rate_per_second"`
	RefreshBurst         int     `yaml:"refresh_burst"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthCooldown returns the configured cooldown as a duration.
func (s SecurityConfig) AuthCooldown() time.Duration {
	return time.Duration(s.AuthCooldownMS) * time.Millisecond
}

// Staleness returns the configured cache staleness as a duration.
func (c CacheConfig) Staleness() time.Duration {
	return time.Duration(c.StalenessMinutes) * time.Minute
}

// EnabledNetworks returns the networks with Enabled set.
func (c *Config) EnabledNetworks() []Network {
	var out []Network
	for _, n := range c.Networks {
		if n.Enabled {
			out = append(out, n)
		}
	}
	return out
}

// Load reads configuration from the specified file, applying defaults for
// unset fields and environment overrides on top.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lanterr.WithDetails(lanterr.ErrConfigNotFound,
				map[string]string{"path": path})
		}
		return nil, lanterr.Wrap(err, "reading config")
	}

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, decodeError(err)
	}

	if err := ApplyEnvironment(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.EnabledNetworks()) == 0 {
		return lanterr.WithSuggestion(lanterr.ErrConfigInvalid,
			"enable at least one network")
	}
	seen := make(map[string]struct{}, len(c.Networks))
	for _, n := range c.Networks {
		if n.Name == "" {
			return lanterr.WithSuggestion(lanterr.ErrConfigInvalid,
				"every network needs a name")
		}
		if _, dup := seen[n.Name]; dup {
			return lanterr.WithDetails(lanterr.ErrConfigInvalid,
				map[string]string{"duplicate_network": n.Name})
		}
		seen[n.Name] = struct{}{}
	}
	if c.Security.AuthCooldownMS < 0 {
		return lanterr.WithSuggestion(lanterr.ErrConfigInvalid,
			"auth_cooldown_ms must not be negative")
	}
	return nil
}

// HomeDir expands and returns the configured home directory.
func (c *Config) HomeDir() (string, error) {
	home := c.Home
	if strings.HasPrefix(home, "~/") {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", lanterr.Wrap(err, "expanding home directory")
		}
		home = filepath.Join(userHome, home[2:])
	}
	return home, nil
}

// VaultDir returns the directory for the secure credential store.
func (c *Config) VaultDir() (string, error) {
	home, err := c.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "vault"), nil
}

// StatePath returns the path of the persisted client-state document.
func (c *Config) StatePath() (string, error) {
	home, err := c.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "state.json"), nil
}

// unknownFieldRegex extracts the offending key from yaml.v3's KnownFields
// error text.
var unknownFieldRegex = regexp.MustCompile(`field (\S+) not found`)

// decodeError converts a yaml decode failure into a structured config error,
// attaching a closest-known-key suggestion for unknown fields.
func decodeError(err error) error {
	matches := unknownFieldRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return lanterr.Wrap(err, "parsing config")
	}

	key := matches[1]
	out := lanterr.WithDetails(lanterr.ErrUnknownConfigKey,
		map[string]string{"key": key})
	if nearest := nearestKey(key); nearest != "" {
		out = lanterr.WithSuggestion(out, fmt.Sprintf("did you mean %q?", nearest))
	}
	return out
}

// knownKeys lists every yaml key the Config schema accepts.
func knownKeys() []string {
	return []string{
		"version", "home", "engine", "networks", "security", "cache", "logging",
		"command", "start_timeout_seconds",
		"name", "chain_id", "symbol", "decimals", "enabled",
		"auth_cooldown_ms", "memory_lock",
		"staleness_minutes", "refresh_rate_per_second", "refresh_burst",
		"level", "format",
	}
}

// maxKeyDistance is the maximum edit distance for a config key suggestion.
const maxKeyDistance = 3

func nearestKey(key string) string {
	best := maxKeyDistance + 1
	var nearest string
	for _, known := range knownKeys() {
		dist := levenshtein.ComputeDistance(strings.ToLower(key), known)
		if dist < best {
			best = dist
			nearest = known
		}
	}
	return nearest
}
