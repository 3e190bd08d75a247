// Package secrets provides the reference decrypter behind the pwd./enc.
// placeholder forms. Ciphertexts are AES-256-GCM, base64 encoded, with the
// nonce prepended.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// AESDecrypter decrypts placeholder ciphertexts with a key derived from a
// passphrase. The passphrase usually comes from the PLAYQ_SECRET_KEY
// environment variable, supplied by the caller.
type AESDecrypter struct {
	key [32]byte
}

// NewAESDecrypter derives the AES key from a passphrase.
func NewAESDecrypter(passphrase string) *AESDecrypter {
	return &AESDecrypter{key: sha256.Sum256([]byte(passphrase))}
}

// Decrypt implements interfaces.Decrypter.
func (d *AESDecrypter) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}

	block, err := aes.NewCipher(d.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, payload := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plain), nil
}

// Encrypt is the counterpart used by tooling to author encrypted values.
func (d *AESDecrypter) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(d.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
