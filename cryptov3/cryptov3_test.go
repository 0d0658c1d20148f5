package cryptov3

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "Insecure Pa55w0rd"
	testMnemonic = "inject kidney empty canal shadow pact comfort wife crush horse wife sketch"
)

func TestNewAndDecrypt_RoundTrip(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	plaintext, err := c.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, string(plaintext))
}

func TestDecrypt_WrongPassword(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	_, err = c.Decrypt("WrongPassword")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)
	assert.Equal(t, "password_incorrect", err.Error())
}

func TestVerifyPassword(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	assert.True(t, c.VerifyPassword(testPassword))
	assert.False(t, c.VerifyPassword("WrongPassword"))
}

func TestReEncrypt(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	reEncrypted, err := ReEncrypt(c, testPassword, "NewPassword123")
	require.NoError(t, err)

	_, err = reEncrypted.Decrypt(testPassword)
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	plaintext, err := reEncrypted.Decrypt("NewPassword123")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, string(plaintext))
}

func TestReEncrypt_WrongOldPassword(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	_, err = ReEncrypt(c, "WrongPassword", "NewPassword123")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)
}

func TestContainer_JSONRoundTrip(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var parsed Container
	require.NoError(t, json.Unmarshal(raw, &parsed))

	plaintext, err := parsed.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, string(plaintext))

	assert.Equal(t, "aes-128-ctr", parsed.Cipher)
	assert.Equal(t, "pbkdf2", parsed.KDF)
	assert.Equal(t, 10240, parsed.KDFParams.C)
	assert.Equal(t, 32, parsed.KDFParams.DKLen)
	assert.Equal(t, "hmac-sha256", parsed.KDFParams.PRF)
}

func TestContainer_JSONFieldNames(t *testing.T) {
	c, err := New(testPassword, []byte(testMnemonic))
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{"ciphertext", "cipherparams", "cipher", "kdf", "kdfparams", "mac"} {
		assert.Contains(t, m, key)
	}

	cipherParams, ok := m["cipherparams"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, cipherParams, "iv")

	kdfParams, ok := m["kdfparams"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"c", "dklen", "prf", "salt"} {
		assert.Contains(t, kdfParams, key)
	}
}

func TestNew_PlaintextTooLarge(t *testing.T) {
	_, err := New(testPassword, make([]byte, maxPlaintextLen+1))
	assert.Error(t, err)
}
