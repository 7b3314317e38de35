// Package crypto implements the pad envelope cipher and the sealing helpers
// used to wrap the temporary session file.
//
// Envelope format: base64(IV || AES-256-GCM ciphertext). The key is derived
// from the passphrase and a fixed application salt with PBKDF2-SHA256. The
// KDF parameters are constants: changing them makes every stored envelope
// unreadable, and there is no format negotiation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// IVSize is the length of the random IV prefixed to every envelope.
	IVSize = 16

	// KeySize is the derived AES-256 key length.
	KeySize = 32

	// PBKDF2 parameters
	Iterations = 1000

	// appSalt is shared by every installation of the browser extension.
	appSalt = "9i0+apMFBsbXMU9Kfai2Cw=="
)

var (
	// ErrMalformedEnvelope is returned when the envelope text is not base64
	// or too short to hold an IV and an authentication tag.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrDecryptionFailed is returned when authenticated decryption rejects
	// the ciphertext: wrong passphrase or corrupted data.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// AppSalt returns the application salt bytes fed into PBKDF2.
//
// The extension decoded the salt with atob and re-encoded the resulting
// binary string as UTF-8, so every decoded byte becomes one UTF-8 code
// point. Reproducing that keeps its envelopes readable.
func AppSalt() []byte {
	raw, err := base64.StdEncoding.DecodeString(appSalt)
	if err != nil {
		panic(fmt.Sprintf("crypto: invalid application salt: %v", err))
	}

	salt := make([]byte, 0, 2*len(raw))
	for _, b := range raw {
		salt = utf8.AppendRune(salt, rune(b))
	}
	return salt
}

// DeriveKey derives the envelope key from a passphrase and salt.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, Iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext under a key derived from passphrase and returns
// the envelope text.
func Encrypt(passphrase, plaintext string) (string, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	key := DeriveKey(passphrase, AppSalt())
	defer Zeroize(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	envelope := make([]byte, IVSize, IVSize+len(plaintext)+gcm.Overhead())
	copy(envelope, iv)
	envelope = gcm.Seal(envelope, iv, []byte(plaintext), nil)
	return EncodeBase64(envelope), nil
}

// Decrypt opens an envelope produced by Encrypt.
func Decrypt(passphrase, envelope string) (string, error) {
	data, err := DecodeBase64(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	key := DeriveKey(passphrase, AppSalt())
	defer Zeroize(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	if len(data) < IVSize+gcm.Overhead() {
		return "", fmt.Errorf("%w: %d bytes", ErrMalformedEnvelope, len(data))
	}

	iv, ciphertext := data[:IVSize], data[IVSize:]
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not utf-8", ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

// EncodeBase64 encodes bytes to base64 string
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes base64 string to bytes
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Zeroize overwrites a byte slice with zeros to clear sensitive data from memory
func Zeroize(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
