package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// envPrefix is the environment variable prefix: LANTERN_HOME,
// LANTERN_LOG_LEVEL, and so on.
const envPrefix = "lantern"

// envOverrides holds the environment variables that may override file
// configuration.
type envOverrides struct {
	Home                 string  `envconfig:"HOME"`
	LogLevel             string  `envconfig:"LOG_LEVEL"`
	LogFormat            string  `envconfig:"LOG_FORMAT"`
	EngineCommand        string  `envconfig:"ENGINE_COMMAND"`
	AuthCooldownMS       int     `envconfig:"AUTH_COOLDOWN_MS" default:"-1"`
	StalenessMinutes     int     `envconfig:"CACHE_STALENESS_MINUTES" default:"-1"`
	RefreshRatePerSecond float64 `envconfig:"REFRESH_RATE_PER_SECOND" default:"-1"`
}

// ApplyEnvironment applies environment variable overrides to the
// configuration.
func ApplyEnvironment(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return lanterr.Wrap(err, "reading environment overrides")
	}

	if env.Home != "" {
		cfg.Home = env.Home
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFormat != "" {
		cfg.Logging.Format = strings.ToLower(env.LogFormat)
	}
	if env.EngineCommand != "" {
		cfg.Engine.Command = strings.Fields(env.EngineCommand)
	}
	if env.AuthCooldownMS >= 0 {
		cfg.Security.AuthCooldownMS = env.AuthCooldownMS
	}
	if env.StalenessMinutes >= 0 {
		cfg.Cache.StalenessMinutes = env.StalenessMinutes
	}
	if env.RefreshRatePerSecond >= 0 {
		cfg.Cache.RefreshRatePerSecond = env.RefreshRatePerSecond
	}
	return nil
}
