package vaultcrypto

import (
	"crypto/subtle"
	"runtime"
)

// ZeroBytes overwrites a byte slice with zeros. runtime.KeepAlive prevents
// the compiler from treating the zeroing as a dead store when the slice is
// not used afterward.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ConstantTimeEqual compares two byte slices without leaking where they
// differ through timing.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// LockMemory best-effort locks the memory region holding sensitive data so
// it cannot be swapped out. Returns true if the region is locked.
func LockMemory(data []byte) bool {
	return mlock(data)
}

// UnlockMemory releases a LockMemory lock. Safe to call on unlocked regions.
func UnlockMemory(data []byte) {
	munlock(data)
}
