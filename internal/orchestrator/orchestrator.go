// Package orchestrator drives the wallet lifecycle: it owns the active
// wallet pointer, feeds events to the lifecycle reducer, and sequences every
// multi-step operation (load, create, switch, refresh) across the engine,
// the secure store, and the cache. All side effects live here; the reducer
// and the status projection stay pure.
package orchestrator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mrz1836/lantern/internal/cache"
	"github.com/mrz1836/lantern/internal/config"
	"github.com/mrz1836/lantern/internal/engine"
	"github.com/mrz1836/lantern/internal/guard"
	"github.com/mrz1836/lantern/internal/metrics"
	"github.com/mrz1836/lantern/internal/securestore"
	"github.com/mrz1836/lantern/internal/wallet"
)

// Orchestrator coordinates the engine service, secure store, and cache.
//
// Three separate guards cover three resource domains: loads and creates,
// switches, and balance refreshes. A slow refresh must never block a switch.
type Orchestrator struct {
	log     zerolog.Logger
	cfg     *config.Config
	engine  *engine.Service
	store   securestore.Store
	cache   *cache.Store
	metrics *metrics.Metrics

	loadGuard    *guard.Guard
	switchGuard  *guard.Guard
	refreshGuard *guard.Guard
	limiter      *rate.Limiter

	mu             sync.Mutex
	lifecycle      wallet.Lifecycle
	activeWalletID string
	switchTarget   string
	cooldownAt     time.Time
	canceled       bool
	subs           []chan wallet.Status
	lastStatus     wallet.Status
}

// New wires an orchestrator. metrics may be nil.
func New(log zerolog.Logger, cfg *config.Config, eng *engine.Service, store securestore.Store, c *cache.Store, m *metrics.Metrics) *Orchestrator {
	olog := log.With().Str("component", "orchestrator").Logger()
	return &Orchestrator{
		log:          olog,
		cfg:          cfg,
		engine:       eng,
		store:        store,
		cache:        c,
		metrics:      m,
		loadGuard:    guard.NewQueued("wallet-load", log),
		switchGuard:  guard.NewQueued("wallet-switch", log),
		refreshGuard: guard.New("balance-refresh", log),
		limiter: rate.NewLimiter(
			rate.Limit(cfg.Cache.RefreshRatePerSecond), cfg.Cache.RefreshBurst),
		lifecycle:  wallet.NotLoaded(),
		lastStatus: wallet.StatusIdle,
	}
}

// Snapshot is one coherent view of the system for consumers.
type Snapshot struct {
	Status         wallet.Status
	Lifecycle      wallet.Lifecycle
	Engine         engine.Snapshot
	ActiveWalletID string
}

// Status returns the current combined view.
func (o *Orchestrator) Status() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	eng := o.engine.State().Snapshot()
	return Snapshot{
		Status:         wallet.Project(eng, o.lifecycle),
		Lifecycle:      o.lifecycle,
		Engine:         eng,
		ActiveWalletID: o.activeWalletID,
	}
}

// ActiveWallet returns the active wallet ID, empty when none is loaded.
func (o *Orchestrator) ActiveWallet() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeWalletID
}

// Subscribe returns a channel of status changes. Sends are best-effort: a
// consumer that stops draining misses updates instead of blocking the core.
func (o *Orchestrator) Subscribe() <-chan wallet.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan wallet.Status, 8)
	o.subs = append(o.subs, ch)
	return ch
}

// apply feeds one event to the reducer and publishes any status change.
func (o *Orchestrator) apply(ev wallet.Event) {
	o.mu.Lock()
	o.lifecycle = wallet.Reduce(o.lifecycle, ev)
	o.publishLocked()
	o.mu.Unlock()
}

// publishLocked notifies subscribers when the projected status changed.
// Caller must hold o.mu.
func (o *Orchestrator) publishLocked() {
	status := wallet.Project(o.engine.State().Snapshot(), o.lifecycle)
	if status == o.lastStatus {
		return
	}
	o.lastStatus = status
	for _, ch := range o.subs {
		select {
		case ch <- status:
		default:
		}
	}
}

// Cancel flips the still-interested flag. In-flight operations observe it
// before committing results; a canceled operation mutates nothing.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.canceled = true
}

func (o *Orchestrator) isCanceled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canceled
}
