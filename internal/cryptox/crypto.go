// Package cryptox seals locked item payloads at rest.
//
// Payloads are encrypted with XChaCha20-Poly1305 under a key derived from the
// server's seal secret via HKDF-SHA256. The item ID is bound as additional
// authenticated data so a sealed payload cannot be moved to another item.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"github.com/dmitrijs2005/facelock/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealInfo = "facelock payload v1"

var ErrEmptySecret = errors.New("seal secret is empty")

type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit payload key from secret.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(sealInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext and returns the ciphertext with its random nonce.
func (s *Sealer) Seal(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aead.NonceSize())
	ciphertext = aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

func (s *Sealer) Open(ciphertext, nonce, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, aad)
}

// Fingerprint is a stable, non-reversible identifier for data, used to
// reference probe images and descriptors in logs and audit rows.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
