// Package vaultcrypto provides the cryptographic helpers behind Lantern's
// credential vault: age-based encryption of seed material, entropy and
// mnemonic generation, and secure handling of sensitive buffers.
package vaultcrypto

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// Encrypt encrypts plaintext using age with a passphrase-derived recipient.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext using age with a passphrase-derived identity.
// A wrong passphrase or corrupted ciphertext yields ErrDecryptionFailed so
// callers can route the failure into the quarantine policy.
func Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, lanterr.Wrap(lanterr.ErrDecryptionFailed, "opening ciphertext")
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, lanterr.Wrap(lanterr.ErrDecryptionFailed, "reading plaintext")
	}

	return plaintext, nil
}
