package keys

import (
	"crypto/sha256"

	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// PasswordKey is a password factor, stored as its SHA-256 digest
type PasswordKey struct {
	hash []byte
}

// NewPasswordKey creates a password factor. The caller keeps ownership
// of the password buffer and should clear it.
func NewPasswordKey(password []byte) *PasswordKey {
	sum := sha256.Sum256(password)
	return &PasswordKey{hash: sum[:]}
}

func (k *PasswordKey) RawKey() []byte {
	return append([]byte(nil), k.hash...)
}

func (k *PasswordKey) Clear() {
	crypto.ClearBytes(k.hash)
}
