package wallet

import (
	"fmt"

	"github.com/mrz1836/lantern/internal/engine"
)

// Status is the externally observable combination of engine and wallet
// state. Consumers poll or subscribe to it; they never see the two
// underlying machines directly.
type Status int

const (
	// StatusIdle: engine not started and not starting.
	StatusIdle Status = iota
	// StatusStartingEngine: engine start in flight.
	StatusStartingEngine
	// StatusEngineReady: engine up, no wallet loaded.
	StatusEngineReady
	// StatusLoadingWallet: wallet existence check or load in flight.
	StatusLoadingWallet
	// StatusReady: wallet loaded and addressable.
	StatusReady
	// StatusError: engine error or wallet load failure.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStartingEngine:
		return "starting_engine"
	case StatusEngineReady:
		return "engine_ready"
	case StatusLoadingWallet:
		return "loading_wallet"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Project maps engine and wallet state to one observable status. It is pure
// and deterministic, so it is safe to call on every poll without debouncing.
//
// Engine errors dominate everything; before the engine is started only the
// loading flag matters; afterwards the wallet machine decides.
func Project(eng engine.Snapshot, lc Lifecycle) Status {
	if eng.Err != nil {
		return StatusError
	}

	if !eng.Started {
		if eng.Loading {
			return StatusStartingEngine
		}
		return StatusIdle
	}

	switch lc.Phase {
	case PhaseNotLoaded:
		return StatusEngineReady
	case PhaseChecking, PhaseLoading:
		return StatusLoadingWallet
	case PhaseReady:
		return StatusReady
	case PhaseErrored:
		return StatusError
	default:
		return StatusError
	}
}
