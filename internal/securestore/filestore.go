package securestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/lantern/internal/fileutil"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

const (
	// vaultFileExtension is the extension for per-wallet credential files.
	vaultFileExtension = ".vault"

	// vaultFilePermissions is the permission mode for credential files.
	vaultFilePermissions = 0o600

	// vaultDirPermissions is the permission mode for the vault directory.
	vaultDirPermissions = 0o700

	// vaultDocumentVersion is the current on-disk document version.
	vaultDocumentVersion = 1
)

// vaultDocument is the on-disk shape of one wallet's encrypted credentials.
// Byte fields travel base64 through encoding/json.
type vaultDocument struct {
	Version          int       `json:"version"`
	WalletID         string    `json:"wallet_id"`
	EncryptionKey    []byte    `json:"encryption_key,omitempty"`
	EncryptedSeed    []byte    `json:"encrypted_seed,omitempty"`
	EncryptedEntropy []byte    `json:"encrypted_entropy,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FileStore is the file-backed Store: one JSON document per wallet under a
// 0700 directory, written atomically with 0600 permissions.
type FileStore struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

// NewFileStore creates a file store rooted at dir, creating it on demand.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, lanterr.Wrap(lanterr.ErrInvalidInput, "vault directory is empty")
	}
	if err := os.MkdirAll(dir, vaultDirPermissions); err != nil {
		return nil, lanterr.Wrap(lanterr.ErrStoreUnavailable,
			"creating vault directory: %v", err)
	}
	return &FileStore{
		dir: dir,
		log: log.With().Str("component", "securestore").Logger(),
	}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+vaultFileExtension)
}

// HasWallet reports whether a credential file exists for id.
func (s *FileStore) HasWallet(_ context.Context, id string) (bool, error) {
	if err := ValidateWalletID(id); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, lanterr.Wrap(lanterr.ErrStoreUnavailable, "checking wallet file: %v", err)
}

// SetEncryptionKey stores the wallet's encrypted encryption key.
func (s *FileStore) SetEncryptionKey(ctx context.Context, id string, blob []byte) error {
	return s.update(ctx, id, func(doc *vaultDocument) {
		doc.EncryptionKey = blob
	})
}

// SetEncryptedSeed stores the wallet's encrypted seed.
func (s *FileStore) SetEncryptedSeed(ctx context.Context, id string, blob []byte) error {
	return s.update(ctx, id, func(doc *vaultDocument) {
		doc.EncryptedSeed = blob
	})
}

// SetEncryptedEntropy stores the wallet's encrypted entropy.
func (s *FileStore) SetEncryptedEntropy(ctx context.Context, id string, blob []byte) error {
	return s.update(ctx, id, func(doc *vaultDocument) {
		doc.EncryptedEntropy = blob
	})
}

// update applies mutate to the wallet's document, creating it when absent,
// and writes the result atomically.
func (s *FileStore) update(_ context.Context, id string, mutate func(*vaultDocument)) error {
	if err := ValidateWalletID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked(id)
	if err != nil {
		if !lanterr.Is(err, lanterr.ErrWalletNotFound) {
			return err
		}
		now := time.Now().UTC()
		doc = &vaultDocument{
			Version:   vaultDocumentVersion,
			WalletID:  id,
			CreatedAt: now,
		}
	}

	mutate(doc)
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "encoding wallet file: %v", err)
	}
	if err := fileutil.WriteAtomic(s.path(id), data, vaultFilePermissions); err != nil {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "writing wallet file: %v", err)
	}
	return nil
}

// GetAllEncrypted returns every stored blob for id in one read. A file that
// exists but cannot be decoded is reported as corrupted, not missing.
func (s *FileStore) GetAllEncrypted(_ context.Context, id string) (*Bundle, error) {
	if err := ValidateWalletID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked(id)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		EncryptionKey:    doc.EncryptionKey,
		EncryptedSeed:    doc.EncryptedSeed,
		EncryptedEntropy: doc.EncryptedEntropy,
	}, nil
}

func (s *FileStore) readLocked(id string) (*vaultDocument, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lanterr.Wrap(lanterr.ErrWalletNotFound, "wallet %q not found", id)
		}
		return nil, lanterr.Wrap(lanterr.ErrStoreUnavailable, "reading wallet file: %v", err)
	}

	var doc vaultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, lanterr.WithDetails(
			lanterr.Wrap(lanterr.ErrVaultCorrupted, "wallet %q: decoding credential file", id),
			map[string]string{"wallet_id": id},
		)
	}
	if doc.Version != vaultDocumentVersion {
		return nil, lanterr.Wrap(lanterr.ErrVaultCorrupted,
			"wallet %q: unsupported credential file version %d", id, doc.Version)
	}
	return &doc, nil
}

// DeleteWallet removes the wallet's credential file. Missing files are fine.
func (s *FileStore) DeleteWallet(_ context.Context, id string) error {
	if err := ValidateWalletID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return lanterr.Wrap(lanterr.ErrStoreUnavailable, "deleting wallet file: %v", err)
	}
	return nil
}

// Authenticate is trivial for the file store: file permissions are the only
// gate, and the OS enforced those at open time.
func (s *FileStore) Authenticate(_ context.Context) error {
	return nil
}

// List returns the IDs of every stored wallet, sorted.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, lanterr.Wrap(lanterr.ErrStoreUnavailable, "listing vault directory: %v", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, vaultFileExtension) {
			continue
		}
		id := strings.TrimSuffix(name, vaultFileExtension)
		if walletIDRegex.MatchString(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// probe writes, reads back, and removes a marker file so a misconfigured or
// read-only vault directory fails Validate instead of the first real write.
func (s *FileStore) probe(_ context.Context) error {
	marker := filepath.Join(s.dir, ".probe")
	if err := fileutil.WriteAtomic(marker, []byte("ok"), vaultFilePermissions); err != nil {
		return err
	}
	data, err := os.ReadFile(marker)
	if err != nil || string(data) != "ok" {
		_ = os.Remove(marker)
		if err == nil {
			err = lanterr.Wrap(lanterr.ErrStoreUnavailable, "probe readback mismatch")
		}
		return err
	}
	return os.Remove(marker)
}
