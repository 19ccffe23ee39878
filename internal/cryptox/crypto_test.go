package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// pins the Argon2id parameters: time=1, memory=64MiB, threads=4
	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	assert.Len(t, key1, 32)
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestSigningKeyAndFingerprint(t *testing.T) {
	k := SigningKey("secretKey")
	assert.Len(t, k, 32)
	assert.Equal(t, k, SigningKey("secretKey"))
	assert.NotEqual(t, k, SigningKey("other"))

	fp := Fingerprint(k)
	assert.Len(t, fp, 8)
	assert.NotContains(t, fp, hex.EncodeToString(k))
}
