// Package cryptox derives the backend's token signing key from the
// configured secret.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

var signingSalt = []byte("admindata/token-signing/v1")

// DeriveKey stretches secret into a 32-byte key with Argon2id.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// SigningKey returns the HMAC key used for access tokens.
func SigningKey(secret string) []byte {
	return DeriveKey([]byte(secret), signingSalt)
}

// Fingerprint identifies a key in logs without revealing it.
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:4])
}
