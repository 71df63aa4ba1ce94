// Package wallet models the per-identity wallet loading lifecycle as a pure
// state machine, plus the combined status projection consumers observe.
//
// The reducer owns no side effects: checking secure storage, calling the
// engine, and touching caches all happen in the orchestrator, which drives
// the machine with events.
package wallet

import "fmt"

// Phase enumerates the wallet lifecycle states.
type Phase int

const (
	// PhaseNotLoaded is the initial state: no wallet is being loaded.
	PhaseNotLoaded Phase = iota
	// PhaseChecking means the wallet's existence is being verified.
	PhaseChecking
	// PhaseLoading means credential material is being loaded into the engine.
	PhaseLoading
	// PhaseReady means the wallet is loaded and addressable.
	PhaseReady
	// PhaseErrored means the last load attempt failed. Leaving this state
	// requires an explicit Reset (or a new StartLoading).
	PhaseErrored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotLoaded:
		return "not_loaded"
	case PhaseChecking:
		return "checking"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseErrored:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Lifecycle is the wallet state machine's state: a tagged value whose fields
// are meaningful per phase. WalletID is empty only in PhaseNotLoaded and may
// be empty in PhaseErrored; Exists is meaningful in PhaseLoading; Cause is
// meaningful in PhaseErrored.
type Lifecycle struct {
	Phase    Phase
	WalletID string
	Exists   bool
	Cause    error
}

// NotLoaded is the machine's initial state.
func NotLoaded() Lifecycle {
	return Lifecycle{Phase: PhaseNotLoaded}
}

// Event is a wallet lifecycle event. The concrete event types in this
// package are the only implementations.
type Event interface {
	isEvent()
}

// CheckWallet begins an existence check for a wallet.
type CheckWallet struct{ WalletID string }

// WalletChecked reports the outcome of an existence check.
type WalletChecked struct {
	WalletID string
	Exists   bool
}

// StartLoading begins loading a wallet, from any state.
type StartLoading struct {
	WalletID string
	Exists   bool
}

// WalletLoaded reports a completed load.
type WalletLoaded struct{ WalletID string }

// WalletError reports a failed load or switch.
type WalletError struct {
	WalletID string
	Cause    error
}

// Reset returns the machine to NotLoaded.
type Reset struct{}

func (CheckWallet) isEvent()   {}
func (WalletChecked) isEvent() {}
func (StartLoading) isEvent()  {}
func (WalletLoaded) isEvent()  {}
func (WalletError) isEvent()   {}
func (Reset) isEvent()         {}

// Reduce returns the state following ev. It is a pure total function: no
// side effects, and events that do not apply in the current state return the
// state unchanged rather than erroring.
//
// CheckWallet only fires from NotLoaded, so the Checking phase is reachable
// just once per machine life; later loads enter through StartLoading, which
// applies from any state.
func Reduce(cur Lifecycle, ev Event) Lifecycle {
	switch e := ev.(type) {
	case CheckWallet:
		if cur.Phase != PhaseNotLoaded {
			return cur
		}
		return Lifecycle{Phase: PhaseChecking, WalletID: e.WalletID}

	case WalletChecked:
		if cur.Phase != PhaseChecking {
			return cur
		}
		return Lifecycle{Phase: PhaseLoading, WalletID: e.WalletID, Exists: e.Exists}

	case StartLoading:
		return Lifecycle{Phase: PhaseLoading, WalletID: e.WalletID, Exists: e.Exists}

	case WalletLoaded:
		if cur.Phase != PhaseLoading {
			return cur
		}
		return Lifecycle{Phase: PhaseReady, WalletID: e.WalletID}

	case WalletError:
		return Lifecycle{Phase: PhaseErrored, WalletID: e.WalletID, Cause: e.Cause}

	case Reset:
		return NotLoaded()

	default:
		// Unknown events leave the state untouched.
		return cur
	}
}
