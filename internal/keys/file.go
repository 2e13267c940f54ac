package keys

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// FileKey is a key-file factor, stored as the SHA-256 digest of the
// file contents
type FileKey struct {
	hash []byte
}

// NewFileKey loads a key file from disk
func NewFileKey(path string) (*FileKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()
	return LoadFileKey(f)
}

// LoadFileKey reads a key file from a reader
func LoadFileKey(r io.Reader) (*FileKey, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return &FileKey{hash: h.Sum(nil)}, nil
}

func (k *FileKey) RawKey() []byte {
	return append([]byte(nil), k.hash...)
}

func (k *FileKey) Clear() {
	crypto.ClearBytes(k.hash)
}
