package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESDecrypter_RoundTrip(t *testing.T) {
	d := NewAESDecrypter("test-passphrase")

	cipher, err := d.Encrypt("s3cret-value")
	require.NoError(t, err)
	require.NotEmpty(t, cipher)

	plain, err := d.Decrypt(cipher)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", plain)
}

func TestAESDecrypter_WrongPassphrase(t *testing.T) {
	cipher, err := NewAESDecrypter("right").Encrypt("value")
	require.NoError(t, err)

	_, err = NewAESDecrypter("wrong").Decrypt(cipher)
	require.Error(t, err)
}

func TestAESDecrypter_InvalidInput(t *testing.T) {
	d := NewAESDecrypter("key")

	_, err := d.Decrypt("not base64 !!!")
	require.Error(t, err)

	_, err = d.Decrypt("c2hvcnQ=") // valid base64, too short for a nonce
	require.Error(t, err)
}
