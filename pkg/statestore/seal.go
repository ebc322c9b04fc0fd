package statestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// StateKeyEnv is the environment variable holding the sealing key material
// when no key file is configured.
const StateKeyEnv = "BACKOFFICE_STATE_KEY"

// ErrSealCorrupt reports sealed data that cannot be opened, typically because
// the sealing key changed or the store was tampered with.
var ErrSealCorrupt = errors.New("statestore: sealed value corrupt or key mismatch")

// Sealer encrypts sensitive values (the refresh token) before they reach the
// store, using ChaCha20-Poly1305 with a key derived from local key material.
type Sealer struct {
	key []byte
}

// NewSealer derives a sealing key, trying in order: the given key file, the
// BACKOFFICE_STATE_KEY environment variable, and finally an ephemeral random
// key. With an ephemeral key, sealed values do not survive a restart, so the
// user has to log in again.
func NewSealer(keyPath string) (*Sealer, error) {
	material, err := keyMaterial(keyPath)
	if err != nil {
		return nil, err
	}

	return NewSealerFromKey(material), nil
}

// NewSealerFromKey builds a sealer directly from key material, deriving the
// fixed-size cipher key from it.
func NewSealerFromKey(material []byte) *Sealer {
	sum := sha256.Sum256(material)
	return &Sealer{key: sum[:]}
}

func keyMaterial(keyPath string) ([]byte, error) {
	if keyPath != "" {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read state key file: %w", err)
		}
		return data, nil
	}

	if env := os.Getenv(StateKeyEnv); env != "" {
		return []byte(env), nil
	}

	material := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("generate ephemeral state key: %w", err)
	}
	return material, nil
}

// Seal encrypts plaintext and returns a base64 string safe to store.
// Layout of the decoded bytes: nonce || ciphertext || auth tag.
func (s *Sealer) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealCorrupt
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrSealCorrupt
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealCorrupt
	}
	return string(plaintext), nil
}
