package krypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrEmptySecret is returned when key material is derived from an empty secret.
var ErrEmptySecret = errors.New("krypto: secret must not be empty")

// DeriveKey expands secret into size bytes with HKDF-SHA256. Different info
// strings yield independent keys from the same secret.
func DeriveKey(secret, info string, size int) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if size <= 0 {
		return nil, fmt.Errorf("krypto: invalid key size %d", size)
	}

	key := make([]byte, size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("krypto: derive key: %w", err)
	}
	return key, nil
}
