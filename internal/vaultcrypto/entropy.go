package vaultcrypto

import (
	"crypto/rand"
	"io"

	bip39 "github.com/tyler-smith/go-bip39"
)

// Reader is the cryptographically secure random number generator.
// It wraps crypto/rand.Reader for consistency and testability.
//
//nolint:gochecknoglobals // Package-level RNG is required for testability
var Reader io.Reader = rand.Reader

// EncryptionKeyLength is the length in bytes of a freshly generated
// credential encryption key.
const EncryptionKeyLength = 32

// NewEntropy generates BIP39-grade entropy of the given bit size
// (128 for 12-word mnemonics, 256 for 24-word).
func NewEntropy(bitSize int) ([]byte, error) {
	return bip39.NewEntropy(bitSize)
}

// NewEncryptionKey generates a random credential encryption key.
func NewEncryptionKey() ([]byte, error) {
	key := make([]byte, EncryptionKeyLength)
	if _, err := io.ReadFull(Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}
