package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrUnknownCipher     = errors.New("unknown cipher")
)

// CipherID selects the AEAD used for the encrypted container payload
type CipherID int

const (
	AES256GCM CipherID = iota
	ChaCha20Poly1305
)

func (c CipherID) String() string {
	switch c {
	case AES256GCM:
		return "aes256-gcm"
	case ChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("cipher(%d)", int(c))
	}
}

// CipherFromString parses a cipher name as stored in the container config
func CipherFromString(s string) (CipherID, error) {
	switch s {
	case "aes256-gcm":
		return AES256GCM, nil
	case "chacha20-poly1305":
		return ChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
}

// CompressionAlgorithm selects payload compression before encryption
type CompressionAlgorithm int

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionGZip
)

func (c CompressionAlgorithm) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZip:
		return "gzip"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// CompressionFromString parses a compression name as stored in the container config
func CompressionFromString(s string) (CompressionAlgorithm, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGZip, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// NewAEAD constructs the AEAD for a cipher id and 32-byte key
func NewAEAD(id CipherID, key []byte) (cipher.AEAD, error) {
	switch id {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		return gcm, nil
	case ChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create chacha20-poly1305: %w", err)
		}
		return aead, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCipher, id)
	}
}

// Encryptor provides authenticated encryption with a selectable cipher
type Encryptor struct {
	aead cipher.AEAD
	key  []byte
}

// NewEncryptor creates an encryptor for the given cipher and key
func NewEncryptor(id CipherID, key []byte) (*Encryptor, error) {
	aead, err := NewAEAD(id, key)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead, key: key}, nil
}

// Encrypt seals plaintext, prepending the random nonce to the result
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce, err := GenerateRandom(e.aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := e.aead.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, len(nonce)+len(ciphertext))
	copy(result, nonce)
	copy(result[len(nonce):], ciphertext)
	return result, nil
}

// Decrypt opens a nonce-prefixed ciphertext and verifies its tag
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	ns := e.aead.NonceSize()
	if len(ciphertext) < ns+e.aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce := ciphertext[:ns]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext[ns:], nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}
