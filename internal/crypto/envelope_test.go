package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, KeySize)
	return key
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(testKey(t))
	require.NoError(t, err)
	return codec
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	plaintexts := []string{"hello", "a", "こんにちは", "a longer message with spaces and\nnewlines"}
	for _, plaintext := range plaintexts {
		envelope, err := codec.Seal(plaintext)
		require.NoError(t, err)
		assert.NotEmpty(t, envelope.Ciphertext)
		assert.Len(t, envelope.Nonce, 12)
		assert.Len(t, envelope.AuthTag, 16)

		got, err := codec.Open(envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestCodec_SealRejectsEmptyPlaintext(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Seal("")
	assert.ErrorIs(t, err, ErrEmptyPlaintext)
}

// TestCodec_FreshNoncePerSeal verifies nonces are never reused: sealing the
// same plaintext twice must produce different nonces and ciphertexts.
func TestCodec_FreshNoncePerSeal(t *testing.T) {
	codec := newTestCodec(t)

	first, err := codec.Seal("same message")
	require.NoError(t, err)
	second, err := codec.Seal("same message")
	require.NoError(t, err)

	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
}

// TestCodec_TamperDetection flips one bit in each envelope field in turn and
// requires Open to fail rather than return altered plaintext.
func TestCodec_TamperDetection(t *testing.T) {
	codec := newTestCodec(t)

	envelope, err := codec.Seal("integrity matters")
	require.NoError(t, err)

	tamper := func(field []byte) []byte {
		out := make([]byte, len(field))
		copy(out, field)
		out[0] ^= 0x01
		return out
	}

	cases := map[string]*Envelope{
		"ciphertext": {Ciphertext: tamper(envelope.Ciphertext), Nonce: envelope.Nonce, AuthTag: envelope.AuthTag},
		"nonce":      {Ciphertext: envelope.Ciphertext, Nonce: tamper(envelope.Nonce), AuthTag: envelope.AuthTag},
		"auth tag":   {Ciphertext: envelope.Ciphertext, Nonce: envelope.Nonce, AuthTag: tamper(envelope.AuthTag)},
	}

	for name, tampered := range cases {
		_, err := codec.Open(tampered)
		assert.ErrorIs(t, err, ErrDecrypt, "tampered %s must not decrypt", name)
	}
}

func TestCodec_WrongKeyFailsOpen(t *testing.T) {
	codec := newTestCodec(t)

	envelope, err := codec.Seal("secret")
	require.NoError(t, err)

	otherKey := bytes.Repeat([]byte{0x24}, KeySize)
	otherCodec, err := NewCodec(otherKey)
	require.NoError(t, err)

	_, err = otherCodec.Open(envelope)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestCodec_OpenRejectsMalformedEnvelopes(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Open(nil)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = codec.Open(&Envelope{})
	assert.ErrorIs(t, err, ErrDecrypt)

	envelope, err := codec.Seal("ok")
	require.NoError(t, err)

	_, err = codec.Open(&Envelope{Ciphertext: envelope.Ciphertext, Nonce: []byte("short"), AuthTag: envelope.AuthTag})
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewCodec_RejectsBadKeyLength(t *testing.T) {
	_, err := NewCodec([]byte("too short"))
	assert.Error(t, err)

	_, err = NewCodec(bytes.Repeat([]byte{0x01}, KeySize+1))
	assert.Error(t, err)
}

func TestParseKey_Hex(t *testing.T) {
	key := testKey(t)

	parsed, err := ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseKey_Base64(t *testing.T) {
	key := testKey(t)

	parsed, err := ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseKey_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"garbage":          "not-a-key!!",
		"wrong length b64": base64.StdEncoding.EncodeToString([]byte("short")),
		"wrong length hex": hex.EncodeToString([]byte("short")),
	}

	for name, encoded := range cases {
		_, err := ParseKey(encoded)
		assert.Error(t, err, "case %s should be rejected", name)
	}
}
