package orchestrator

import (
	"context"

	"github.com/mrz1836/lantern/internal/cache"
	"github.com/mrz1836/lantern/internal/engine"
	"github.com/mrz1836/lantern/internal/wallet"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// balanceResult is one balance row in an engine getBalances result.
type balanceResult struct {
	Asset    string `json:"asset,omitempty"`
	Balance  string `json:"balance"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// addressResult is an engine getAddresses result.
type addressResult struct {
	Address string `json:"address"`
}

// RefreshBalances fetches balances for the active wallet across every
// enabled network and writes them to the cache.
//
// The refresh guard drops a call that arrives while one is already running;
// refresh is a trigger, not a request/response operation. Per-network
// failures are logged and the loop continues, so one unreachable chain does
// not starve the rest.
func (o *Orchestrator) RefreshBalances(ctx context.Context) error {
	o.mu.Lock()
	active := o.activeWalletID
	ready := o.lifecycle.Phase == wallet.PhaseReady
	o.mu.Unlock()

	if active == "" || !ready {
		return lanterr.WithSuggestion(lanterr.ErrWalletNotInitialized,
			"load a wallet before refreshing balances")
	}

	return o.refreshGuard.Run(ctx, func(ctx context.Context) error {
		o.doRefresh(ctx, active)
		return nil
	})
}

func (o *Orchestrator) doRefresh(ctx context.Context, walletID string) {
	accountIndex := o.cache.ActiveAccount(walletID)

	type fetched struct {
		network  string
		balances []balanceResult
	}
	var results []fetched

	for _, network := range o.cfg.EnabledNetworks() {
		if err := o.limiter.Wait(ctx); err != nil {
			o.log.Debug().Msg("balance refresh canceled")
			return
		}

		result, err := o.engine.Call(ctx, engine.MethodGetBalances, network.Name, accountIndex, nil)
		if err != nil {
			// Non-critical: skip this network, keep going.
			o.log.Warn().Str("network", network.Name).Err(err).
				Msg("balance fetch failed, skipping network")
			continue
		}

		var balances []balanceResult
		if err := engine.ParseResultInto(engine.MethodGetBalances, result, &balances); err != nil {
			o.log.Warn().Str("network", network.Name).Err(err).
				Msg("balance result unparseable, skipping network")
			continue
		}
		results = append(results, fetched{network: network.Name, balances: balances})
	}

	// Nothing commits after cancellation, not even networks already fetched.
	if ctx.Err() != nil || o.isCanceled() {
		o.log.Debug().Str("wallet", walletID).Msg("balance refresh canceled before commit")
		return
	}

	for _, r := range results {
		for _, b := range r.balances {
			o.cache.SetBalance(cache.BalanceEntry{
				WalletID:     walletID,
				Network:      r.network,
				AccountIndex: accountIndex,
				Asset:        b.Asset,
				Balance:      b.Balance,
				Symbol:       b.Symbol,
				Decimals:     b.Decimals,
			})
		}
	}
	o.log.Info().Str("wallet", walletID).Int("networks", len(results)).
		Msg("balances refreshed")
}

// Address returns the active wallet's receive address on one network,
// serving from cache when possible.
func (o *Orchestrator) Address(ctx context.Context, network string) (string, error) {
	o.mu.Lock()
	active := o.activeWalletID
	ready := o.lifecycle.Phase == wallet.PhaseReady
	o.mu.Unlock()

	if active == "" || !ready {
		return "", lanterr.WithSuggestion(lanterr.ErrWalletNotInitialized,
			"load a wallet before requesting addresses")
	}

	accountIndex := o.cache.ActiveAccount(active)
	if entry, ok := o.cache.GetAddress(active, network, accountIndex); ok {
		return entry.Address, nil
	}

	result, err := o.engine.Call(ctx, engine.MethodGetAddresses, network, accountIndex, nil)
	if err != nil {
		return "", err
	}
	var addr addressResult
	if err := engine.ParseResultInto(engine.MethodGetAddresses, result, &addr); err != nil {
		return "", err
	}

	o.cache.SetAddress(cache.AddressEntry{
		WalletID:     active,
		Network:      network,
		AccountIndex: accountIndex,
		Address:      addr.Address,
	})
	return addr.Address, nil
}

// Transactions returns the active wallet's transaction history on one
// network, decoded but otherwise unshaped; the engine owns the schema.
func (o *Orchestrator) Transactions(ctx context.Context, network string) (any, error) {
	o.mu.Lock()
	active := o.activeWalletID
	ready := o.lifecycle.Phase == wallet.PhaseReady
	o.mu.Unlock()

	if active == "" || !ready {
		return nil, lanterr.WithSuggestion(lanterr.ErrWalletNotInitialized,
			"load a wallet before requesting transactions")
	}

	accountIndex := o.cache.ActiveAccount(active)
	result, err := o.engine.Call(ctx, engine.MethodGetTransactions, network, accountIndex, nil)
	if err != nil {
		return nil, err
	}
	return engine.ParseResult(engine.MethodGetTransactions, result)
}
