package notify

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// CredentialSealer encrypts portal passwords at rest. The notify
// daemon has to keep real credentials to poll on the student's behalf;
// sealing them means a leaked database file alone is not enough to log
// in as anyone.
type CredentialSealer struct {
	aead cipher.AEAD
}

// GenerateSealKey produces a fresh random sealing key.
func GenerateSealKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// NewCredentialSealer builds a sealer from a 32-byte key.
func NewCredentialSealer(key []byte) (*CredentialSealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &CredentialSealer{aead: aead}, nil
}

// Seal encrypts a password. The nonce is prepended to the ciphertext.
func (s *CredentialSealer) Seal(password string) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, []byte(password), nil), nil
}

// Open decrypts a sealed password.
func (s *CredentialSealer) Open(sealed []byte) (string, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", errors.New("sealed credential too short")
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("unseal credential: %w", err)
	}
	return string(plaintext), nil
}
