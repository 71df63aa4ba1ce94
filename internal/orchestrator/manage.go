package orchestrator

import (
	"context"

	"github.com/mrz1836/lantern/internal/securestore"
	"github.com/mrz1836/lantern/internal/wallet"
)

// ListWallets returns every stored wallet ID.
func (o *Orchestrator) ListWallets(ctx context.Context) ([]string, error) {
	return o.store.List(ctx)
}

// DeleteWallet removes a wallet's stored credentials and cached data.
// Deleting the active wallet also unloads it.
func (o *Orchestrator) DeleteWallet(ctx context.Context, id string) error {
	if err := securestore.ValidateWalletID(id); err != nil {
		return err
	}

	if err := o.store.DeleteWallet(ctx, id); err != nil {
		return err
	}
	o.cache.EvictWallet(id)

	o.mu.Lock()
	wasActive := o.activeWalletID == id
	if wasActive {
		o.activeWalletID = ""
		o.lifecycle = wallet.Reduce(o.lifecycle, wallet.Reset{})
		o.publishLocked()
	}
	o.mu.Unlock()

	if wasActive {
		o.engine.ClearSensitive()
	}
	o.log.Info().Str("wallet", id).Msg("wallet deleted")
	return nil
}
