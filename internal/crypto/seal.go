package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// SealKeySize is the XChaCha20-Poly1305 key length.
	SealKeySize = chacha20poly1305.KeySize

	// Nonce size for XChaCha20-Poly1305
	NonceSize = chacha20poly1305.NonceSizeX
)

// SealParams holds the Argon2id parameters used for sealing keys.
type SealParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultSealParams is light on purpose: the sealing key only wraps the
// temporary session file.
func DefaultSealParams() SealParams {
	return SealParams{
		Memory:      32 * 1024, // 32 MB
		Iterations:  2,
		Parallelism: 1,
	}
}

// DeriveSealingKey derives a sealing key from secret material using Argon2id.
func DeriveSealingKey(secret, salt []byte, params SealParams) []byte {
	return argon2.IDKey(secret, salt, params.Iterations, params.Memory, params.Parallelism, SealKeySize)
}

// GenerateSealingKey generates a random sealing key
func GenerateSealingKey() ([]byte, error) {
	key := make([]byte, SealKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	return key, nil
}

// Seal encrypts data using XChaCha20-Poly1305 and returns nonce || ciphertext.
func Seal(plaintext []byte, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal.
func Open(sealed []byte, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < NonceSize+aead.Overhead() {
		return nil, errors.New("sealed data too short")
	}

	plaintext, err := aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}

	return plaintext, nil
}
