//go:build windows

package vaultcrypto

// Memory locking is not implemented on Windows; sensitive buffers rely on
// explicit zeroing only.

func mlock(_ []byte) bool {
	return false
}

func munlock(_ []byte) {
}
