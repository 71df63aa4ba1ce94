package vaultcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	plaintext := []byte("super secret seed material")

	ciphertext, err := Encrypt(plaintext, "correct horse")
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	decrypted, err := Decrypt(ciphertext, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	t.Parallel()

	ciphertext, err := Encrypt([]byte("payload"), "right")
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "wrong")
	require.Error(t, err)
	assert.True(t, lanterr.Is(err, lanterr.ErrDecryptionFailed),
		"wrong passphrase must surface as a decryption failure")
}

func TestDecryptGarbage(t *testing.T) {
	t.Parallel()

	_, err := Decrypt([]byte("not an age file at all"), "whatever")
	require.Error(t, err)
	assert.True(t, lanterr.Is(err, lanterr.ErrDecryptionFailed))
}

func TestNewEntropy(t *testing.T) {
	t.Parallel()

	e128, err := NewEntropy(128)
	require.NoError(t, err)
	assert.Len(t, e128, 16)

	e256, err := NewEntropy(256)
	require.NoError(t, err)
	assert.Len(t, e256, 32)

	_, err = NewEntropy(100)
	assert.Error(t, err)
}

func TestNewEncryptionKey(t *testing.T) {
	t.Parallel()

	k1, err := NewEncryptionKey()
	require.NoError(t, err)
	assert.Len(t, k1, EncryptionKeyLength)

	k2, err := NewEncryptionKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestMnemonicRoundTrip(t *testing.T) {
	t.Parallel()

	entropy, err := NewEntropy(128)
	require.NoError(t, err)

	mnemonic, err := NewMnemonic(entropy)
	require.NoError(t, err)
	require.NoError(t, ValidateMnemonic(mnemonic))

	back, err := EntropyFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, entropy, back)
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		assert.Error(t, ValidateMnemonic(""))
	})

	t.Run("wrong word count", func(t *testing.T) {
		err := ValidateMnemonic("abandon ability able")
		require.Error(t, err)
		assert.True(t, lanterr.Is(err, lanterr.ErrInvalidMnemonic))
	})

	t.Run("bad checksum", func(t *testing.T) {
		// 12 valid words, invalid checksum.
		err := ValidateMnemonic(
			"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon")
		assert.Error(t, err)
	})

	t.Run("typo gets a suggestion", func(t *testing.T) {
		err := ValidateMnemonic(
			"abandn abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
		require.Error(t, err)

		var le *lanterr.LanternError
		require.True(t, lanterr.As(err, &le))
		assert.Equal(t, "abandon", le.Details["abandn"])
	})
}

func TestNormalizeMnemonic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "ABANDON Ability", "abandon ability"},
		{"numbered list", "1. abandon\n2) ability\n3: able", "abandon ability able"},
		{"bullets", "- abandon\n* ability\n• able", "abandon ability able"},
		{"commas and extra spaces", "abandon,  ability ,able", "abandon ability able"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeMnemonic(tc.in))
		})
	}
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abandon", SuggestWord("abandon"))
	assert.Equal(t, "abandon", SuggestWord("abandn"))
	assert.Empty(t, SuggestWord("zzzzzzzzzz"))
}

func TestZeroBytes(t *testing.T) {
	t.Parallel()

	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestConstantTimeEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, ConstantTimeEqual([]byte("abc"), []byte("abc")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("abd")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("abcd")))
}
