package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of the message key in bytes.
const KeySize = chacha20poly1305.KeySize

// tagSize is the length of the authentication tag appended by the AEAD.
const tagSize = chacha20poly1305.Overhead

var (
	// ErrDecrypt is returned when authentication fails on Open: the
	// ciphertext, nonce or tag were altered, or the wrong key is configured.
	ErrDecrypt = errors.New("decryption failed: message authentication failed")

	// ErrEmptyPlaintext is returned by Seal for empty input.
	ErrEmptyPlaintext = errors.New("empty plaintext")
)

// Envelope bundles a ciphertext with the parameters needed to decrypt it.
// The three fields always travel together.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	AuthTag    []byte
}

// Codec seals and opens message bodies with a single service-wide symmetric
// key. It performs no I/O.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("message key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// ParseKey decodes key material supplied as either 64 hex characters or
// base64, and requires exactly KeySize bytes after decoding. A key that does
// not decode cleanly aborts startup rather than silently corrupting every
// stored message.
func ParseKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("message key is empty")
	}

	if len(encoded) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(encoded); err == nil {
			return key, nil
		}
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("message key is neither valid hex nor valid base64")
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("message key must decode to %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// Seal encrypts a non-empty plaintext under a fresh random nonce. The AEAD's
// trailing tag is split off so ciphertext, nonce and tag are stored as three
// separate fields.
func (c *Codec) Seal(plaintext string) (*Envelope, error) {
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	boundary := len(sealed) - tagSize

	return &Envelope{
		Ciphertext: sealed[:boundary],
		Nonce:      nonce,
		AuthTag:    sealed[boundary:],
	}, nil
}

// Open decrypts an envelope, verifying the authentication tag. It never
// returns unauthenticated plaintext: any tampering yields ErrDecrypt.
func (c *Codec) Open(env *Envelope) (string, error) {
	if env == nil || len(env.Ciphertext) == 0 {
		return "", ErrDecrypt
	}
	if len(env.Nonce) != c.aead.NonceSize() || len(env.AuthTag) != tagSize {
		return "", ErrDecrypt
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+tagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := c.aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
