package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lantern/internal/metrics"
)

func TestStoreAddresses(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	_, ok := s.GetAddress("alice", "ethereum", 0)
	assert.False(t, ok)

	s.SetAddress(AddressEntry{
		WalletID: "alice", Network: "ethereum", AccountIndex: 0, Address: "0xabc",
	})

	entry, ok := s.GetAddress("alice", "ethereum", 0)
	require.True(t, ok)
	assert.Equal(t, "0xabc", entry.Address)
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestStoreBalances(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	s.SetBalance(BalanceEntry{
		WalletID: "alice", Network: "ethereum", AccountIndex: 0,
		Balance: "1000000000000000000", Symbol: "ETH", Decimals: 18,
	})
	s.SetBalance(BalanceEntry{
		WalletID: "alice", Network: "ethereum", AccountIndex: 0, Asset: "USDC",
		Balance: "250000000", Symbol: "USDC", Decimals: 6,
	})

	native, ok := s.GetBalance("alice", "ethereum", 0, "")
	require.True(t, ok)
	assert.Equal(t, "1000000000000000000", native.Balance)

	usdc, ok := s.GetBalance("alice", "ethereum", 0, "USDC")
	require.True(t, ok)
	assert.Equal(t, "250000000", usdc.Balance)

	assert.Len(t, s.WalletBalances("alice"), 2)

	_, ok = s.LastBalanceUpdate("alice")
	assert.True(t, ok)
}

func TestStoreKeysAreWalletScoped(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	s.SetBalance(BalanceEntry{
		WalletID: "alice", Network: "ethereum", AccountIndex: 0, Balance: "1",
	})

	_, ok := s.GetBalance("bob", "ethereum", 0, "")
	assert.False(t, ok, "one wallet's entries must be invisible to another")
	assert.Empty(t, s.WalletBalances("bob"))
}

func TestStoreStaleness(t *testing.T) {
	t.Parallel()

	s := New(50*time.Millisecond, nil)

	assert.True(t, s.IsStale("alice"), "no update recorded means stale")

	s.SetBalance(BalanceEntry{WalletID: "alice", Network: "ethereum", Balance: "1"})
	assert.False(t, s.IsStale("alice"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, s.IsStale("alice"))
}

func TestStoreEvictWallet(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	s.SetAddress(AddressEntry{WalletID: "alice", Network: "ethereum", Address: "0xa"})
	s.SetBalance(BalanceEntry{WalletID: "alice", Network: "ethereum", Balance: "1"})
	s.SetAddress(AddressEntry{WalletID: "bob", Network: "ethereum", Address: "0xb"})
	s.SetActiveWallet("alice")
	s.SetActiveAccount("alice", 2)

	s.EvictWallet("alice")

	_, ok := s.GetAddress("alice", "ethereum", 0)
	assert.False(t, ok)
	assert.Empty(t, s.WalletBalances("alice"))
	assert.True(t, s.IsStale("alice"))
	assert.Equal(t, "", s.ActiveWallet())
	assert.Equal(t, 0, s.ActiveAccount("alice"))
	assert.NotContains(t, s.WalletList(), "alice")

	// Other wallets are untouched.
	_, ok = s.GetAddress("bob", "ethereum", 0)
	assert.True(t, ok)
}

func TestStoreReset(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	s.SetAddress(AddressEntry{WalletID: "alice", Network: "ethereum", Address: "0xa"})
	s.SetBalance(BalanceEntry{WalletID: "alice", Network: "ethereum", Balance: "1"})
	s.SetActiveWallet("alice")

	s.Reset()

	assert.Equal(t, 0, s.Size())
	assert.True(t, s.IsStale("alice"))
	assert.Equal(t, "alice", s.ActiveWallet(),
		"identity bookkeeping survives a derived-data reset")
	assert.Equal(t, []string{"alice"}, s.WalletList())
}

func TestStoreActiveWalletList(t *testing.T) {
	t.Parallel()

	s := New(0, nil)

	s.SetActiveWallet("alice")
	s.SetActiveWallet("bob")
	s.SetActiveWallet("alice")

	assert.Equal(t, "alice", s.ActiveWallet())
	assert.Equal(t, []string{"alice", "bob"}, s.WalletList(),
		"re-activating a known wallet must not duplicate it")
}

func TestStoreMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	s := New(0, m)

	s.SetAddress(AddressEntry{WalletID: "alice", Network: "ethereum", Address: "0xa"})
	_, _ = s.GetAddress("alice", "ethereum", 0)
	_, _ = s.GetAddress("alice", "polygon", 0)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
}
