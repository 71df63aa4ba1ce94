// Package securestore is the credential persistence boundary: encrypted key,
// seed, and entropy blobs keyed by wallet ID. Implementations wrap whatever
// the device offers (OS keychain, protected files); callers see only the
// Store contract and never plaintext.
package securestore

import (
	"context"
	"regexp"
	"time"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// walletIDRegex validates wallet IDs at the storage boundary.
var walletIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// probeTimeout bounds the availability probe so a hung keychain daemon
// cannot stall startup.
const probeTimeout = 5 * time.Second

// Bundle is the full encrypted credential set for one wallet, exactly as
// persisted. Any field may be empty when the wallet was stored partially.
type Bundle struct {
	EncryptionKey    []byte
	EncryptedSeed    []byte
	EncryptedEntropy []byte
}

// Store persists encrypted credential material per wallet ID.
//
// Get and Set operations never see plaintext; encryption happens in the
// engine or in vaultcrypto before material reaches the store. A corrupted
// record surfaces as ErrVaultCorrupted from GetAllEncrypted.
type Store interface {
	// HasWallet reports whether any credential material exists for id.
	HasWallet(ctx context.Context, id string) (bool, error)

	// SetEncryptionKey stores the wallet's encrypted encryption key.
	SetEncryptionKey(ctx context.Context, id string, blob []byte) error

	// SetEncryptedSeed stores the wallet's encrypted seed.
	SetEncryptedSeed(ctx context.Context, id string, blob []byte) error

	// SetEncryptedEntropy stores the wallet's encrypted entropy.
	SetEncryptedEntropy(ctx context.Context, id string, blob []byte) error

	// GetAllEncrypted returns every stored blob for id in one read.
	GetAllEncrypted(ctx context.Context, id string) (*Bundle, error)

	// DeleteWallet removes every blob for id. Deleting a wallet that does
	// not exist is not an error.
	DeleteWallet(ctx context.Context, id string) error

	// Authenticate performs whatever user verification the backing store
	// requires before credential reads. A file store authenticates
	// trivially; a keychain store may trigger an OS prompt.
	Authenticate(ctx context.Context) error

	// List returns the IDs of every stored wallet.
	List(ctx context.Context) ([]string, error)
}

// prober is implemented by stores that can cheaply verify the backing
// medium actually works.
type prober interface {
	probe(ctx context.Context) error
}

// Validate checks a store before first use. A nil store or a failed probe is
// a configuration error, not something to retry at call time.
func Validate(ctx context.Context, s Store) error {
	if s == nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "no secure store configured")
	}

	p, ok := s.(prober)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := p.probe(ctx); err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "secure store probe: %v", err)
	}
	return nil
}

// ValidateWalletID checks an ID against the storage naming rules.
func ValidateWalletID(id string) error {
	if !walletIDRegex.MatchString(id) {
		return lanterr.WithDetails(
			lanterr.Wrap(lanterr.ErrInvalidInput, "invalid wallet ID"),
			map[string]string{"wallet_id": id},
		)
	}
	return nil
}
