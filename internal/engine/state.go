package engine

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/mrz1836/lantern/internal/config"
)

// State is the process-wide engine lifecycle state. Flags are independently
// readable without a lock; the channel handle and credential material are
// guarded and never escape the engine package.
//
// Invariant: initialized implies started.
type State struct {
	started     atomic.Bool
	initialized atomic.Bool
	loading     atomic.Bool
	lastErr     atomic.Error

	mu       sync.Mutex
	channel  Channel
	networks []config.Network
	creds    *Credentials
}

// NewState creates an empty engine state.
func NewState() *State {
	return &State{}
}

// Snapshot is an immutable view of the lifecycle flags, safe to hand to the
// status projection.
type Snapshot struct {
	Started     bool
	Initialized bool
	Loading     bool
	Err         error
}

// Snapshot returns the current lifecycle flags.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Started:     s.started.Load(),
		Initialized: s.initialized.Load(),
		Loading:     s.loading.Load(),
		Err:         s.lastErr.Load(),
	}
}

// Started reports whether the engine start call has succeeded.
func (s *State) Started() bool { return s.started.Load() }

// Initialized reports whether credentials have been loaded into the engine.
func (s *State) Initialized() bool { return s.initialized.Load() }

// Loading reports whether a start or initialize call is in flight. The flag
// is advisory for observers; the service's guard is the actual gate.
func (s *State) Loading() bool { return s.loading.Load() }

// Networks returns the network configs the engine was started with.
func (s *State) Networks() []config.Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]config.Network(nil), s.networks...)
}

// clearSensitive wipes credential material only; every lifecycle flag and
// the channel are left untouched.
func (s *State) clearSensitive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Clear()
	s.creds = nil
}

// resetLocked clears everything. Caller must hold s.mu.
func (s *State) resetLocked() {
	s.started.Store(false)
	s.initialized.Store(false)
	s.loading.Store(false)
	s.lastErr.Store(nil)
	s.channel = nil
	s.networks = nil
	s.creds.Clear()
	s.creds = nil
}
