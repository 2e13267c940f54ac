package keys

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// HMACChallengeKey is a software challenge-response factor answering
// with HMAC-SHA256 over the seed. It stands in for hardware tokens that
// implement the same protocol.
type HMACChallengeKey struct {
	secret []byte
}

func NewHMACChallengeKey(secret []byte) *HMACChallengeKey {
	return &HMACChallengeKey{secret: append([]byte(nil), secret...)}
}

func (k *HMACChallengeKey) Challenge(seed []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write(seed)
	return mac.Sum(nil), nil
}

func (k *HMACChallengeKey) Clear() {
	crypto.ClearBytes(k.secret)
}
