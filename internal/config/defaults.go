package config

// DefaultAuthCooldownMS is the fail-fast window after an authentication
// failure. Load attempts inside the window are rejected without contacting
// the engine.
const DefaultAuthCooldownMS = 3000

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.lantern",
		Engine: EngineConfig{
			Command:             []string{"lantern-engine"},
			StartTimeoutSeconds: 30,
		},
		Networks: []Network{
			{
				Name:     "ethereum",
				ChainID:  1,
				Symbol:   "ETH",
				Decimals: 18,
				Enabled:  true,
			},
			{
				Name:     "polygon",
				ChainID:  137,
				Symbol:   "POL",
				Decimals: 18,
				Enabled:  false,
			},
		},
		Security: SecurityConfig{
			AuthCooldownMS: DefaultAuthCooldownMS,
			MemoryLock:     true,
		},
		Cache: CacheConfig{
			StalenessMinutes:     5,
			RefreshRatePerSecond: 5,
			RefreshBurst:         10,
		},
		Logging: LoggingConfig{
			Level:  "error",
			Format: "console",
		},
	}
}
