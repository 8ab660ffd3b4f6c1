package tokenstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealInfo is the HKDF context string. Changing it invalidates every
// persisted token.
const sealInfo = "costpilot token store v1"

// errMalformed is returned by Open for values that fail authentication.
var errMalformed = errors.New("sealed value is malformed or was tampered with")

// Sealer encrypts slot values before they reach Redis, so a Redis dump does
// not leak bearer tokens. XChaCha20-Poly1305 with a random 24-byte nonce
// prepended: [nonce][ciphertext+tag], base64url encoded.
type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit key from the application secret with HKDF-SHA256.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("seal secret must not be empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}

	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext and binds it to the slot key as associated data,
// so a value copied into another workspace's slot does not open.
func (s *Sealer) Seal(slotKey, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(slotKey))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(slotKey, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", errMalformed
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", errMalformed
	}

	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, []byte(slotKey))
	if err != nil {
		return "", errMalformed
	}

	return string(plaintext), nil
}
