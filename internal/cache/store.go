// Package cache holds derived wallet data (addresses, balances) and the
// persisted client state. Everything in it can be rebuilt by asking the
// engine again; losing the cache is an inconvenience, never data loss.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/mrz1836/lantern/internal/metrics"
)

// DefaultStaleness is the duration after which cached balances are
// considered stale.
const DefaultStaleness = 5 * time.Minute

// AddressEntry is one cached receive address.
type AddressEntry struct {
	WalletID     string    `json:"wallet_id"`
	Network      string    `json:"network"`
	AccountIndex int       `json:"account_index"`
	Address      string    `json:"address"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BalanceEntry is one cached balance. Balance is a decimal string because
// chain amounts overflow float64.
type BalanceEntry struct {
	WalletID     string    `json:"wallet_id"`
	Network      string    `json:"network"`
	AccountIndex int       `json:"account_index"`
	Asset        string    `json:"asset,omitempty"`
	Balance      string    `json:"balance"`
	Symbol       string    `json:"symbol"`
	Decimals     int       `json:"decimals"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is the in-memory cache. Keys always include the wallet ID, so one
// identity's reads can never surface another identity's data.
type Store struct {
	mu                sync.RWMutex
	addresses         map[string]AddressEntry
	balances          map[string]BalanceEntry
	lastBalanceUpdate map[string]time.Time
	walletList        []string
	activeWalletID    string
	activeAccount     map[string]int

	staleness time.Duration
	metrics   *metrics.Metrics
}

// New creates an empty store. staleness <= 0 selects DefaultStaleness;
// m may be nil.
func New(staleness time.Duration, m *metrics.Metrics) *Store {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &Store{
		addresses:         make(map[string]AddressEntry),
		balances:          make(map[string]BalanceEntry),
		lastBalanceUpdate: make(map[string]time.Time),
		activeAccount:     make(map[string]int),
		staleness:         staleness,
		metrics:           m,
	}
}

func addressKey(walletID, network string, accountIndex int) string {
	return fmt.Sprintf("%s:%s:%d", walletID, network, accountIndex)
}

func balanceKey(walletID, network string, accountIndex int, asset string) string {
	if asset != "" {
		return fmt.Sprintf("%s:%s:%d:%s", walletID, network, accountIndex, asset)
	}
	return fmt.Sprintf("%s:%s:%d", walletID, network, accountIndex)
}

// SetAddress stores a receive address.
func (s *Store) SetAddress(entry AddressEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.UpdatedAt = time.Now().UTC()
	s.addresses[addressKey(entry.WalletID, entry.Network, entry.AccountIndex)] = entry
}

// GetAddress returns a cached address if present.
func (s *Store) GetAddress(walletID, network string, accountIndex int) (AddressEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.addresses[addressKey(walletID, network, accountIndex)]
	s.recordLookup(ok)
	return entry, ok
}

// SetBalance stores a balance and refreshes the wallet's last-update time.
func (s *Store) SetBalance(entry BalanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	entry.UpdatedAt = now
	s.balances[balanceKey(entry.WalletID, entry.Network, entry.AccountIndex, entry.Asset)] = entry
	s.lastBalanceUpdate[entry.WalletID] = now
}

// GetBalance returns a cached balance if present.
func (s *Store) GetBalance(walletID, network string, accountIndex int, asset string) (BalanceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.balances[balanceKey(walletID, network, accountIndex, asset)]
	s.recordLookup(ok)
	return entry, ok
}

// WalletBalances returns every cached balance for one wallet.
func (s *Store) WalletBalances(walletID string) []BalanceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BalanceEntry
	for _, entry := range s.balances {
		if entry.WalletID == walletID {
			out = append(out, entry)
		}
	}
	return out
}

// LastBalanceUpdate returns when the wallet's balances were last written.
func (s *Store) LastBalanceUpdate(walletID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastBalanceUpdate[walletID]
	return t, ok
}

// IsStale reports whether the wallet's balances are older than the staleness
// window. A wallet with no recorded update is stale.
func (s *Store) IsStale(walletID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastBalanceUpdate[walletID]
	if !ok {
		return true
	}
	return time.Since(t) > s.staleness
}

// SetActiveWallet records the active wallet ID, adding it to the wallet list
// when new.
func (s *Store) SetActiveWallet(walletID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeWalletID = walletID
	if walletID == "" {
		return
	}
	for _, id := range s.walletList {
		if id == walletID {
			return
		}
	}
	s.walletList = append(s.walletList, walletID)
}

// ActiveWallet returns the recorded active wallet ID, empty when none.
func (s *Store) ActiveWallet() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeWalletID
}

// WalletList returns the known wallet IDs.
func (s *Store) WalletList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.walletList...)
}

// SetActiveAccount records the active account index for a wallet.
func (s *Store) SetActiveAccount(walletID string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeAccount[walletID] = index
}

// ActiveAccount returns the wallet's active account index, zero when unset.
func (s *Store) ActiveAccount(walletID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeAccount[walletID]
}

// EvictWallet purges every entry belonging to one wallet and removes it from
// the wallet list. The active wallet ID is cleared when it points at the
// evicted wallet.
func (s *Store) EvictWallet(walletID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entry := range s.addresses {
		if entry.WalletID == walletID {
			delete(s.addresses, k)
		}
	}
	for k, entry := range s.balances {
		if entry.WalletID == walletID {
			delete(s.balances, k)
		}
	}
	delete(s.lastBalanceUpdate, walletID)
	delete(s.activeAccount, walletID)

	kept := s.walletList[:0]
	for _, id := range s.walletList {
		if id != walletID {
			kept = append(kept, id)
		}
	}
	s.walletList = kept
	if s.activeWalletID == walletID {
		s.activeWalletID = ""
	}
}

// Reset drops every derived entry. The wallet list and active IDs survive: a
// restarting engine invalidates addresses and balances, not which wallets
// exist.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses = make(map[string]AddressEntry)
	s.balances = make(map[string]BalanceEntry)
	s.lastBalanceUpdate = make(map[string]time.Time)
}

// Size returns the number of cached address and balance entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addresses) + len(s.balances)
}

// recordLookup must be called with at least a read lock held.
func (s *Store) recordLookup(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit()
	} else {
		s.metrics.RecordCacheMiss()
	}
}
