package engine

import (
	"github.com/mrz1836/lantern/internal/vaultcrypto"
)

// Credentials holds the key and seed material handed to the engine's
// initialize call. It exists only to detect no-op re-initialization and is
// owned separately from the lifecycle flags so secret hygiene and lifecycle
// state cannot be accidentally coupled: Clear wipes the material without
// touching anything else.
type Credentials struct {
	key  []byte
	seed []byte
}

// NewCredentials copies key and seed into a fresh Credentials value.
// The buffers are best-effort locked against swapping.
func NewCredentials(key, seed []byte) *Credentials {
	c := &Credentials{
		key:  append([]byte(nil), key...),
		seed: append([]byte(nil), seed...),
	}
	vaultcrypto.LockMemory(c.key)
	vaultcrypto.LockMemory(c.seed)
	return c
}

// Matches reports whether the stored material equals the given pair.
// Comparison is constant-time.
func (c *Credentials) Matches(key, seed []byte) bool {
	if c == nil {
		return false
	}
	return vaultcrypto.ConstantTimeEqual(c.key, key) &&
		vaultcrypto.ConstantTimeEqual(c.seed, seed)
}

// Clear zeroes and releases the material. Safe to call repeatedly and on nil.
func (c *Credentials) Clear() {
	if c == nil {
		return
	}
	vaultcrypto.ZeroBytes(c.key)
	vaultcrypto.ZeroBytes(c.seed)
	vaultcrypto.UnlockMemory(c.key)
	vaultcrypto.UnlockMemory(c.seed)
	c.key = nil
	c.seed = nil
}
