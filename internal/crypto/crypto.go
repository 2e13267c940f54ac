package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const (
	SaltSize       = 32 // KDF salt size in bytes
	KeySize        = 32 // derived key size (AES-256 / ChaCha20)
	MasterSeedSize = 32 // master seed size in bytes
	NonceSize      = 12 // AEAD nonce size (GCM and ChaCha20-Poly1305)
	TagSize        = 16 // AEAD authentication tag size
)

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// mustRandom is GenerateRandom for callers with no error path.
// Entropy failure is not recoverable; panicking matches uuid.New.
func mustRandom(n int) []byte {
	b, err := GenerateRandom(n)
	if err != nil {
		panic(err)
	}
	return b
}
