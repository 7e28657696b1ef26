// Package krypto provides the small set of cryptographic helpers used across
// the module.
//
// # Secure Token Generation
//
//	token, err := krypto.GenerateSecureToken(32) // 64 hex characters
//
// # Key Derivation
//
// DeriveKey turns a configured secret into fixed-size key material with
// HKDF-SHA256. Callers pass a distinct info string per purpose:
//
//	key, err := krypto.DeriveKey(secret, "beaver-connect/token-store", 32)
//
// # AES-GCM Encryption
//
//	svc, err := krypto.NewAESGCMServiceFromSecret(secret, "beaver-connect/token-store")
//	sealed, err := svc.Seal("access-token")
//	plain, err := svc.Open(sealed)
//
// Seal produces "nonce.ciphertext" in raw URL base64, which fits in a single
// text column or cache value.
package krypto
