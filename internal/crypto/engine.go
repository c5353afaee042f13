// Package crypto turns payloads into opaque URL-safe tokens and back.
//
// Token layout (before base64url, no padding):
//
//	nonce (24 bytes) || XChaCha20-Poly1305( marker (1 byte) || body )
//
// body is the compact JSON payload, zlib-compressed when marker is 0x01.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"siteqr/internal/models"
)

// Strict decoding rejects non-zero trailing bits, so every character of a
// token is significant.
var tokenEncoding = base64.RawURLEncoding.Strict()

var errTokenTooShort = errors.New("token too short")

// Engine holds the derived key material. It is immutable after NewEngine and
// safe for concurrent use.
type Engine struct {
	aead  cipher.AEAD
	keyID string
}

// NewEngine derives the symmetric key from secret. The secret itself is not retained.
func NewEngine(secret string) (*Engine, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	keyID, err := deriveKeyID(key[:])
	if err != nil {
		return nil, fmt.Errorf("derive key id: %w", err)
	}
	return &Engine{aead: aead, keyID: keyID}, nil
}

// KeyID is a non-secret fingerprint of the engine key.
func (e *Engine) KeyID() string { return e.keyID }

// Encrypt serializes, compresses and seals p. Each call uses a fresh random
// nonce, so encrypting the same payload twice gives different tokens.
func (e *Engine) Encrypt(p models.Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return e.Seal(body)
}

// Seal encrypts arbitrary payload bytes into a token.
func (e *Engine) Seal(body []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+1+len(body)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, frame(body), nil)
	return tokenEncoding.EncodeToString(sealed), nil
}

// Decrypt returns the exact payload bytes that were sealed into token.
// Every failure is a *DecryptError; no partial output is returned.
func (e *Engine) Decrypt(token string) ([]byte, error) {
	blob, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, decryptErr("decode", err)
	}
	ns := e.aead.NonceSize()
	if len(blob) < ns+e.aead.Overhead()+1 {
		return nil, decryptErr("decode", errTokenTooShort)
	}
	framed, err := e.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return nil, decryptErr("open", err)
	}
	body, err := unframe(framed)
	if err != nil {
		return nil, decryptErr("decompress", err)
	}
	return body, nil
}

// DecryptPayload decrypts token and decodes the payload JSON.
func (e *Engine) DecryptPayload(token string) (models.Payload, error) {
	body, err := e.Decrypt(token)
	if err != nil {
		return models.Payload{}, err
	}
	var p models.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Payload{}, decryptErr("unmarshal", err)
	}
	return p, nil
}
