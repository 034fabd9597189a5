package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer(nil)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer([]byte("server-seal-secret"))
	require.NoError(t, err)

	plaintext := []byte("meet me at the usual place")
	aad := []byte("item-1")

	ct, nonce, err := s.Seal(plaintext, aad)
	require.NoError(t, err)
	assert.Len(t, nonce, 24)
	assert.False(t, bytes.Contains(ct, plaintext), "ciphertext must not leak plaintext")

	got, err := s.Open(ct, nonce, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSealer_FreshNoncePerSeal(t *testing.T) {
	s, err := NewSealer([]byte("k"))
	require.NoError(t, err)

	ct1, n1, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	ct2, n2, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, ct1, ct2)
}

func TestSealer_OpenRejectsTampering(t *testing.T) {
	s, err := NewSealer([]byte("server-seal-secret"))
	require.NoError(t, err)
	ct, nonce, err := s.Seal([]byte("payload"), []byte("item-1"))
	require.NoError(t, err)

	t.Run("other item", func(t *testing.T) {
		_, err := s.Open(ct, nonce, []byte("item-2"))
		assert.Error(t, err)
	})

	t.Run("flipped bit", func(t *testing.T) {
		bad := append([]byte(nil), ct...)
		bad[0] ^= 0x01
		_, err := s.Open(bad, nonce, []byte("item-1"))
		assert.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewSealer([]byte("different"))
		require.NoError(t, err)
		_, err = other.Open(ct, nonce, []byte("item-1"))
		assert.Error(t, err)
	})
}

func TestFingerprint(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Fingerprint([]byte("abc")))
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
}
