// Package cli implements the lantern command-line interface. The root
// command is the composition root: every component is constructed here and
// passed by reference, so there are no package-level singletons to reset
// between tests.
package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrz1836/lantern/internal/cache"
	"github.com/mrz1836/lantern/internal/config"
	"github.com/mrz1836/lantern/internal/engine"
	"github.com/mrz1836/lantern/internal/metrics"
	"github.com/mrz1836/lantern/internal/orchestrator"
	"github.com/mrz1836/lantern/internal/securestore"
)

// App holds the wired components behind every command.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	cache   *cache.Store
	state   *cache.FileStorage
	engine  *engine.Service
	orch    *orchestrator.Orchestrator
}

// appOptions are the root-level flags that shape construction.
type appOptions struct {
	configPath string
	useKeyring bool
	verbose    bool
}

// newApp builds the full component graph in dependency order: config,
// logger, metrics, cache, secure store, engine service, orchestrator.
func newApp(opts appOptions) (*App, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	log := config.NewLogger(cfg.Logging)
	m := metrics.New()

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, err
	}
	state := cache.NewFileStorage(statePath, log)
	cacheStore := cache.New(cfg.Cache.Staleness(), m)
	cacheStore.Hydrate(state.Load())

	var store securestore.Store
	if opts.useKeyring {
		store = securestore.NewKeyringStore(log)
	} else {
		vaultDir, dirErr := cfg.VaultDir()
		if dirErr != nil {
			return nil, dirErr
		}
		store, err = securestore.NewFileStore(vaultDir, log)
		if err != nil {
			return nil, err
		}
	}
	if err := securestore.Validate(context.Background(), store); err != nil {
		return nil, err
	}

	dial := func(ctx context.Context) (engine.Channel, error) {
		return engine.DialStdio(ctx, cfg.Engine.Command, log)
	}
	eng := engine.NewService(log, dial, cacheStore, m)

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		cache:   cacheStore,
		state:   state,
		engine:  eng,
		orch:    orchestrator.New(log, cfg, eng, store, cacheStore, m),
	}, nil
}

// loadConfig reads the config file when one is given and falls back to
// defaults. config.Load already applies environment overrides and validates,
// so only the defaults path does that here.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Defaults()
	if err := config.ApplyEnvironment(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close persists the client state and tears the engine down. It never
// returns an error; shutdown failures are logged and swallowed.
func (a *App) Close(ctx context.Context) {
	if err := a.state.Save(a.cache.Export()); err != nil {
		a.log.Warn().Err(err).Msg("saving client state")
	}
	a.engine.Reset(ctx)
}
