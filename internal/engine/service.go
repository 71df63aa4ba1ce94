package engine

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/lantern/internal/config"
	"github.com/mrz1836/lantern/internal/guard"
	"github.com/mrz1836/lantern/internal/metrics"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// CacheResetter is the one hook through which an engine reset cascades into
// the derived-data cache: cached addresses and balances are meaningless
// without a running engine.
type CacheResetter interface {
	Reset()
}

// Service owns the engine lifecycle: at most one start in flight, idempotent
// credential initialization, and cleanup that never throws.
type Service struct {
	log        zerolog.Logger
	state      *State
	dial       DialFunc
	startGuard *guard.Guard
	cache      CacheResetter
	metrics    *metrics.Metrics
}

// NewService wires an engine service. dial constructs the transport; cache
// may be nil when no derived-data cache is attached (tests).
func NewService(log zerolog.Logger, dial DialFunc, cache CacheResetter, m *metrics.Metrics) *Service {
	return &Service{
		log:        log.With().Str("component", "engine").Logger(),
		state:      NewState(),
		dial:       dial,
		startGuard: guard.New("engine-start", log),
		cache:      cache,
		metrics:    m,
	}
}

// State exposes the lifecycle state for status projection.
func (s *Service) State() *State {
	return s.state
}

// startArgs is the payload of the engine start call.
type startArgs struct {
	Networks []config.Network `json:"networks"`
}

// Start launches the engine with the given networks. It is a no-op when a
// start is already in flight or the engine is already started; concurrent
// callers are dropped by the guard, so at most one start side effect occurs.
func (s *Service) Start(ctx context.Context, networks []config.Network) error {
	if s.state.Loading() || s.state.Started() {
		return nil
	}

	var startErr error
	_ = s.startGuard.Run(ctx, func(ctx context.Context) error {
		startErr = s.doStart(ctx, networks)
		return startErr
	})
	return startErr
}

func (s *Service) doStart(ctx context.Context, networks []config.Network) error {
	// Re-check under the guard: a concurrent caller may have completed the
	// start between our flag check and lock acquisition.
	if s.state.Started() {
		return nil
	}

	s.state.loading.Store(true)
	defer s.state.loading.Store(false)

	s.state.mu.Lock()
	old := s.state.channel
	s.state.channel = nil
	s.state.mu.Unlock()
	if old != nil {
		// Best-effort teardown of a stale channel from a failed prior start.
		if err := old.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing stale engine channel")
		}
	}

	ch, err := s.dial(ctx)
	if err != nil {
		s.state.lastErr.Store(err)
		return lanterr.Wrap(lanterr.ErrEngineStartFailed, "dialing engine: %v", err)
	}

	args, err := EncodeArgs(startArgs{Networks: networks})
	if err != nil {
		_ = ch.Close()
		s.state.lastErr.Store(err)
		return lanterr.Wrap(lanterr.ErrEngineStartFailed, "encoding start arguments: %v", err)
	}

	began := time.Now()
	_, callErr := ch.Call(ctx, MethodStart, "", 0, args)
	s.recordCall(began, callErr)
	if callErr != nil {
		_ = ch.Close()
		s.state.lastErr.Store(callErr)
		return lanterr.Wrap(lanterr.ErrEngineStartFailed, "engine start call: %v", callErr)
	}

	s.state.mu.Lock()
	s.state.channel = ch
	s.state.networks = append([]config.Network(nil), networks...)
	s.state.mu.Unlock()
	s.state.lastErr.Store(nil)
	s.state.started.Store(true)

	s.log.Info().Int("networks", len(networks)).Msg("engine started")
	return nil
}

// initializeArgs is the payload of the credential initialize call.
// Material travels base64-encoded.
type initializeArgs struct {
	Key  string `json:"key"`
	Seed string `json:"seed"`
}

// InitializeCredentials loads key and seed material into the engine. It
// requires a started engine. A repeated call with byte-identical material is
// an idempotent success and does not contact the engine again.
func (s *Service) InitializeCredentials(ctx context.Context, key, seed []byte) error {
	if !s.state.Started() {
		return lanterr.WithSuggestion(lanterr.ErrEngineNotStarted,
			"start the engine before initializing credentials")
	}

	s.state.mu.Lock()
	if s.state.initialized.Load() && s.state.creds.Matches(key, seed) {
		s.state.mu.Unlock()
		s.log.Debug().Msg("credentials unchanged, skipping re-initialization")
		return nil
	}
	ch := s.state.channel
	s.state.mu.Unlock()

	if ch == nil {
		return lanterr.Wrap(lanterr.ErrEngineNotStarted, "engine channel is gone")
	}

	s.state.loading.Store(true)
	defer s.state.loading.Store(false)

	payload := initializeArgs{
		Key:  base64.StdEncoding.EncodeToString(key),
		Seed: base64.StdEncoding.EncodeToString(seed),
	}
	args, err := EncodeArgs(payload)
	if err != nil {
		return err
	}

	began := time.Now()
	_, callErr := ch.Call(ctx, MethodInitializeCredentials, "", 0, args)
	s.recordCall(began, callErr)
	if callErr != nil {
		// The engine's credential state is indeterminate after a failed
		// initialize. Drop the flag and the material so the next attempt
		// always contacts the engine.
		s.state.initialized.Store(false)
		s.state.clearSensitive()
		return normalizeInitError(callErr)
	}

	s.state.mu.Lock()
	s.state.creds.Clear()
	s.state.creds = NewCredentials(key, seed)
	s.state.mu.Unlock()
	s.state.initialized.Store(true)

	s.log.Info().Msg("engine credentials initialized")
	return nil
}

// ClearSensitive wipes the retained credential material without touching any
// lifecycle flag. Used once a caller no longer needs the idempotence check.
func (s *Service) ClearSensitive() {
	s.state.clearSensitive()
}

// Call issues an engine method over the owned channel. The channel handle
// itself never leaves this service.
func (s *Service) Call(ctx context.Context, method, network string, accountIndex int, args *string) (*string, error) {
	if !s.state.Started() {
		return nil, lanterr.ErrEngineNotStarted
	}

	s.state.mu.Lock()
	ch := s.state.channel
	s.state.mu.Unlock()
	if ch == nil {
		return nil, lanterr.Wrap(lanterr.ErrEngineNotStarted, "engine channel is gone")
	}

	began := time.Now()
	result, err := ch.Call(ctx, method, network, accountIndex, args)
	s.recordCall(began, err)
	if err != nil {
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed, "%s: %v", method, err)
	}
	return result, nil
}

// Reset tears the engine down and clears every field, credentials included.
// The derived-data cache is reset through the injected hook. Reset never
// returns an error; teardown failures are logged and swallowed.
func (s *Service) Reset(ctx context.Context) {
	s.state.mu.Lock()
	ch := s.state.channel
	s.state.resetLocked()
	s.state.mu.Unlock()

	if ch != nil {
		if args, err := EncodeArgs(struct{}{}); err == nil {
			if _, err := ch.Call(ctx, MethodStop, "", 0, args); err != nil {
				s.log.Debug().Err(err).Msg("engine stop call failed during reset")
			}
		}
		if err := ch.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing engine channel during reset")
		}
	}

	if s.cache != nil {
		s.cache.Reset()
	}

	s.log.Info().Msg("engine reset")
}

func (s *Service) recordCall(began time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordEngineCall(time.Since(began), err)
	}
}

// normalizeInitError keeps structured error codes crossing the engine
// boundary intact. Engine-side failures arrive as strings; decryption
// detection on those strings happens in the orchestrator's quarantine
// policy, not here.
func normalizeInitError(err error) error {
	var le *lanterr.LanternError
	if lanterr.As(err, &le) {
		return err
	}
	return lanterr.Wrap(lanterr.ErrEngineCallFailed, "initializing credentials: %v", err)
}
