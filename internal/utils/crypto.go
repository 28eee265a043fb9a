package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/minwoo-kang/localstar-service/internal/apperrors"
)

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
)

// DecryptField decrypts a single PII field delivered by the identity
// provider. The blob is base64(iv || ciphertext || tag) with a 12-byte IV
// and a 16-byte GCM tag; key is a raw AES-256 key; aad is bound into the
// tag verification. Any malformed input or failed tag check returns a
// Decryption-kind error and no plaintext.
func DecryptField(blob string, key []byte, aad string) (string, error) {
	if blob == "" {
		return "", apperrors.New(apperrors.KindDecryption, "encrypted field is empty")
	}
	if len(key) != 32 {
		return "", apperrors.Newf(apperrors.KindDecryption, "decryption key must be 32 bytes, got %d", len(key))
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecryption, "failed to decode encrypted field", err)
	}
	if len(data) < gcmNonceSize+gcmTagSize {
		return "", apperrors.Newf(apperrors.KindDecryption, "encrypted field too short: %d bytes", len(data))
	}

	iv := data[:gcmNonceSize]
	ciphertext := data[gcmNonceSize:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecryption, "failed to create cipher", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecryption, "failed to create GCM", err)
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, []byte(aad))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecryption, "failed to decrypt field", err)
	}

	return string(plaintext), nil
}

// EncryptField is the inverse of DecryptField, producing the same
// base64(iv || ciphertext || tag) wire format. Used by tests and tooling.
func EncryptField(plaintext string, key []byte, aad string) (string, error) {
	if len(key) != 32 {
		return "", fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	iv := make([]byte, gcmNonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, iv, []byte(plaintext), []byte(aad))
	return base64.StdEncoding.EncodeToString(append(iv, ciphertext...)), nil
}
