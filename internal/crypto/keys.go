package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the derived symmetric key.
const KeySize = 32

// ErrEmptySecret is returned when an engine is built from an empty shared secret.
var ErrEmptySecret = errors.New("shared secret is empty")

// DeriveKey hashes the shared secret into a KeySize-byte symmetric key.
func DeriveKey(secret string) ([KeySize]byte, error) {
	if secret == "" {
		return [KeySize]byte{}, ErrEmptySecret
	}
	return sha256.Sum256([]byte(secret)), nil
}

// deriveKeyID expands a short public identifier from the key so logs and the
// ledger can tell keys apart without revealing them.
func deriveKeyID(key []byte) (string, error) {
	h := hkdf.New(sha256.New, key, nil, []byte("siteqr-key-id"))
	out := make([]byte, 8)
	if _, err := io.ReadFull(h, out); err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

// GenerateSecret returns a fresh hex-encoded secret of n random bytes.
func GenerateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
