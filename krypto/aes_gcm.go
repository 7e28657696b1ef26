package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedSealed is returned by Open when the input is not nonce.ciphertext.
var ErrMalformedSealed = errors.New("krypto: malformed sealed value")

// Service defines the interface for encryption operations
type Service interface {
	Encrypt(data []byte) (ciphertext, nonce []byte, err error)
	Decrypt(ciphertext, nonce []byte) ([]byte, error)

	// Seal encrypts plaintext into a single "nonce.ciphertext" string
	// (both parts raw URL base64) suitable for a text column.
	Seal(plaintext string) (string, error)
	// Open reverses Seal.
	Open(sealed string) (string, error)
}

type aesGCMService struct {
	gcm cipher.AEAD
}

// NewAESGCMService creates an AES-GCM service. The key must be 16, 24 or 32
// bytes long.
func NewAESGCMService(key string) (Service, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aesGCMService{gcm: gcm}, nil
}

// NewAESGCMServiceFromSecret derives an AES-256 key from an arbitrary
// secret with DeriveKey and returns a service using it.
func NewAESGCMServiceFromSecret(secret, info string) (Service, error) {
	key, err := DeriveKey(secret, info, 32)
	if err != nil {
		return nil, err
	}
	return NewAESGCMService(string(key))
}

func (s *aesGCMService) Encrypt(data []byte) ([]byte, []byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.gcm.Seal(nil, nonce, data, nil), nonce, nil
}

func (s *aesGCMService) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != s.gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(nonce), s.gcm.NonceSize())
	}
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (s *aesGCMService) Seal(plaintext string) (string, error) {
	ciphertext, nonce, err := s.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(nonce) + "." + enc.EncodeToString(ciphertext), nil
}

func (s *aesGCMService) Open(sealed string) (string, error) {
	noncePart, ctPart, ok := strings.Cut(sealed, ".")
	if !ok || noncePart == "" || ctPart == "" {
		return "", ErrMalformedSealed
	}

	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(noncePart)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrMalformedSealed, err)
	}
	ciphertext, err := enc.DecodeString(ctPart)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrMalformedSealed, err)
	}

	plaintext, err := s.Decrypt(ciphertext, nonce)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
