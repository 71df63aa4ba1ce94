package securestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

const (
	// keyringService is the service namespace under which entries live.
	keyringService = "lantern"

	// keyringIndexUser is the entry that tracks which wallets exist, since
	// OS keyrings cannot enumerate entries.
	keyringIndexUser = "wallet-index"

	slotEncryptionKey    = "key"
	slotEncryptedSeed    = "seed"
	slotEncryptedEntropy = "entropy"
)

// KeyringStore is the OS-keychain-backed Store. Each wallet occupies three
// entries (key, seed, entropy), base64-encoded because keyrings hold strings,
// plus a shared JSON index entry for enumeration.
type KeyringStore struct {
	log zerolog.Logger
	mu  sync.Mutex
}

// NewKeyringStore creates a keychain-backed store. Availability is checked
// via Validate, not here.
func NewKeyringStore(log zerolog.Logger) *KeyringStore {
	return &KeyringStore{
		log: log.With().Str("component", "securestore").Logger(),
	}
}

func slotUser(id, slot string) string {
	return id + "/" + slot
}

// HasWallet reports whether any slot exists for id.
func (s *KeyringStore) HasWallet(_ context.Context, id string) (bool, error) {
	if err := ValidateWalletID(id); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.readIndexLocked()
	if err != nil {
		return false, err
	}
	for _, known := range ids {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

// SetEncryptionKey stores the wallet's encrypted encryption key.
func (s *KeyringStore) SetEncryptionKey(ctx context.Context, id string, blob []byte) error {
	return s.setSlot(ctx, id, slotEncryptionKey, blob)
}

// SetEncryptedSeed stores the wallet's encrypted seed.
func (s *KeyringStore) SetEncryptedSeed(ctx context.Context, id string, blob []byte) error {
	return s.setSlot(ctx, id, slotEncryptedSeed, blob)
}

// SetEncryptedEntropy stores the wallet's encrypted entropy.
func (s *KeyringStore) SetEncryptedEntropy(ctx context.Context, id string, blob []byte) error {
	return s.setSlot(ctx, id, slotEncryptedEntropy, blob)
}

func (s *KeyringStore) setSlot(_ context.Context, id, slot string, blob []byte) error {
	if err := ValidateWalletID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded := base64.StdEncoding.EncodeToString(blob)
	if err := keyring.Set(keyringService, slotUser(id, slot), encoded); err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "keyring write: %v", err)
	}
	return s.addToIndexLocked(id)
}

// GetAllEncrypted returns every stored blob for id in one read. An entry
// that exists but cannot be base64-decoded is reported as corrupted.
func (s *KeyringStore) GetAllEncrypted(_ context.Context, id string) (*Bundle, error) {
	if err := ValidateWalletID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle := &Bundle{}
	found := false
	for slot, dst := range map[string]*[]byte{
		slotEncryptionKey:    &bundle.EncryptionKey,
		slotEncryptedSeed:    &bundle.EncryptedSeed,
		slotEncryptedEntropy: &bundle.EncryptedEntropy,
	} {
		encoded, err := keyring.Get(keyringService, slotUser(id, slot))
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, lanterr.Wrap(lanterr.ErrStoreUnavailable, "keyring read: %v", err)
		}
		blob, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, lanterr.WithDetails(
				lanterr.Wrap(lanterr.ErrVaultCorrupted, "wallet %q: decoding %s entry", id, slot),
				map[string]string{"wallet_id": id},
			)
		}
		*dst = blob
		found = true
	}

	if !found {
		return nil, lanterr.Wrap(lanterr.ErrWalletNotFound, "wallet %q not found", id)
	}
	return bundle, nil
}

// DeleteWallet removes every slot for id and drops it from the index.
func (s *KeyringStore) DeleteWallet(_ context.Context, id string) error {
	if err := ValidateWalletID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range []string{slotEncryptionKey, slotEncryptedSeed, slotEncryptedEntropy} {
		err := keyring.Delete(keyringService, slotUser(id, slot))
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return lanterr.Wrap(lanterr.ErrStoreUnavailable, "keyring delete: %v", err)
		}
	}
	return s.removeFromIndexLocked(id)
}

// Authenticate touches the keyring so the OS can raise its unlock prompt if
// the keychain is locked.
func (s *KeyringStore) Authenticate(_ context.Context) error {
	_, err := keyring.Get(keyringService, keyringIndexUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return lanterr.Wrap(lanterr.ErrAuthentication, "keyring access: %v", err)
	}
	return nil
}

// List returns the IDs of every stored wallet, sorted.
func (s *KeyringStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.readIndexLocked()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *KeyringStore) readIndexLocked() ([]string, error) {
	raw, err := keyring.Get(keyringService, keyringIndexUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, lanterr.Wrap(lanterr.ErrStoreUnavailable, "keyring index read: %v", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// A broken index is recoverable: entries still exist, enumeration
		// does not. Log and start a fresh index.
		s.log.Warn().Err(err).Msg("wallet index is corrupted, resetting")
		return nil, nil
	}
	return ids, nil
}

func (s *KeyringStore) writeIndexLocked(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "encoding wallet index: %v", err)
	}
	if err := keyring.Set(keyringService, keyringIndexUser, string(data)); err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "keyring index write: %v", err)
	}
	return nil
}

func (s *KeyringStore) addToIndexLocked(id string) error {
	ids, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	for _, known := range ids {
		if known == id {
			return nil
		}
	}
	return s.writeIndexLocked(append(ids, id))
}

func (s *KeyringStore) removeFromIndexLocked(id string) error {
	ids, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, known := range ids {
		if known != id {
			kept = append(kept, known)
		}
	}
	return s.writeIndexLocked(kept)
}

// probe round-trips a marker entry, so a missing keychain daemon fails
// Validate instead of the first credential write. The round trip runs in a
// goroutine because some keyring backends block indefinitely.
func (s *KeyringStore) probe(ctx context.Context) error {
	const probeUser = "probe"

	done := make(chan error, 1)
	go func() {
		if err := keyring.Set(keyringService, probeUser, "ok"); err != nil {
			done <- err
			return
		}
		val, err := keyring.Get(keyringService, probeUser)
		if err != nil || !strings.EqualFold(val, "ok") {
			_ = keyring.Delete(keyringService, probeUser)
			if err == nil {
				err = errors.New("probe readback mismatch")
			}
			done <- err
			return
		}
		done <- keyring.Delete(keyringService, probeUser)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
