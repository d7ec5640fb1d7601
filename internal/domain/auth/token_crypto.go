package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// tokenCipher seals provider refresh tokens at rest with AES-GCM. The
// stored form is base64url(nonce || ciphertext).
type tokenCipher struct {
	key []byte
}

func newTokenCipher(key string) tokenCipher {
	return tokenCipher{key: []byte(key)}
}

func (c tokenCipher) aead() (cipher.AEAD, error) {
	switch len(c.key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("token encryption key must be 16, 24, or 32 bytes")
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c tokenCipher) seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func (c tokenCipher) open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(payload) < gcm.NonceSize() {
		return "", errors.New("invalid token payload")
	}
	nonce, ciphertext := payload[:gcm.NonceSize()], payload[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
