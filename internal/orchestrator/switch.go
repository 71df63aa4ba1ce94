package orchestrator

import (
	"context"

	"github.com/mrz1836/lantern/internal/securestore"
	"github.com/mrz1836/lantern/internal/wallet"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// SwitchTo makes another stored wallet active.
//
// Duplicate and conflicting switches are silent no-ops: a switch to the
// already active wallet, a switch whose target is already in flight, and a
// switch while a different target is in flight all return nil without doing
// anything. Callers wait for the in-flight switch to resolve instead of
// queueing a second target.
func (o *Orchestrator) SwitchTo(ctx context.Context, id string) error {
	if err := securestore.ValidateWalletID(id); err != nil {
		return err
	}

	o.mu.Lock()
	if o.activeWalletID == id || o.switchTarget != "" {
		o.mu.Unlock()
		return nil
	}
	o.switchTarget = id
	prev := o.activeWalletID
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.switchTarget = ""
		o.mu.Unlock()
	}()

	var opErr error
	if err := o.switchGuard.Run(ctx, func(ctx context.Context) error {
		opErr = o.doSwitch(ctx, id, prev)
		return opErr
	}); err != nil && opErr == nil {
		opErr = err
	}
	return opErr
}

func (o *Orchestrator) doSwitch(ctx context.Context, id, prev string) error {
	if !o.engine.State().Started() {
		return lanterr.WithSuggestion(lanterr.ErrEngineNotStarted,
			"start the engine before switching wallets")
	}

	// The previous wallet's credential material must not survive into the
	// new session, even if the switch then fails.
	if prev != "" && prev != id {
		o.engine.ClearSensitive()
	}

	exists, err := o.store.HasWallet(ctx, id)
	if err != nil {
		return o.failSwitch(id, err)
	}
	if !exists {
		// The previous wallet stays active and keeps its caches.
		return o.failSwitch(id, lanterr.Wrap(lanterr.ErrWalletNotFound,
			"cannot switch: wallet %q does not exist", id))
	}

	bundle, err := o.store.GetAllEncrypted(ctx, id)
	if err != nil {
		return o.failSwitch(id, err)
	}

	if err := o.engine.InitializeCredentials(ctx, bundle.EncryptionKey, bundle.EncryptedSeed); err != nil {
		if IsDecryptionError(err) {
			return o.quarantine(ctx, id, err)
		}
		return o.failSwitch(id, err)
	}

	if err := ctx.Err(); err != nil || o.isCanceled() {
		o.log.Debug().Str("wallet", id).Msg("switch canceled before commit")
		return err
	}

	// Active pointer and Ready state move together so no observer ever sees
	// the new wallet active without its lifecycle being Ready.
	o.mu.Lock()
	o.lifecycle = wallet.Reduce(o.lifecycle, wallet.StartLoading{WalletID: id, Exists: true})
	o.lifecycle = wallet.Reduce(o.lifecycle, wallet.WalletLoaded{WalletID: id})
	o.activeWalletID = id
	o.publishLocked()
	o.mu.Unlock()

	o.cache.SetActiveWallet(id)
	if o.metrics != nil {
		o.metrics.RecordSwitch()
	}
	o.log.Info().Str("from", prev).Str("to", id).Msg("wallet switched")
	return nil
}

// failSwitch leaves the previous wallet active and records the failure on
// the lifecycle machine.
func (o *Orchestrator) failSwitch(id string, err error) error {
	o.apply(wallet.WalletError{WalletID: id, Cause: err})
	return err
}
