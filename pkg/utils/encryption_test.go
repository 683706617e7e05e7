package utils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestParseEncryptionKey(t *testing.T) {
	_, err := ParseEncryptionKey("")
	assert.Error(t, err)

	_, err = ParseEncryptionKey("not base64!!")
	assert.Error(t, err)

	_, err = ParseEncryptionKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.Error(t, err)

	key, err := ParseEncryptionKey(newTestKey(t))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestContentCipher_EncryptDecrypt(t *testing.T) {
	c, err := NewContentCipher(newTestKey(t))
	require.NoError(t, err)

	sealed, err := c.Encrypt("Felt anxious before the exam, calmer after a walk.")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "anxious")

	again, err := c.Encrypt("Felt anxious before the exam, calmer after a walk.")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Felt anxious before the exam, calmer after a walk.", plain)
}

func TestContentCipher_EmptyAndTampered(t *testing.T) {
	c, err := NewContentCipher(newTestKey(t))
	require.NoError(t, err)

	out, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	other, err := NewContentCipher(newTestKey(t))
	require.NoError(t, err)
	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.Error(t, err, "wrong key must fail authentication")
}
