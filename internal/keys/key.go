// Package keys provides the credential factors a vault can be locked
// with: password, key file and challenge-response, combined through
// CompositeKey. The composite is what the key envelope derives from; it
// is shared by reference and never serialized into the container.
package keys

import (
	"crypto/sha256"

	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// Key is a single key factor contributing raw bytes to the composite.
// RawKey returns a fresh copy; the caller clears it after use.
type Key interface {
	RawKey() []byte
}

// ChallengeKey is a challenge-response factor (hardware token or a
// software stand-in). Challenge may fail when the device is unreachable.
type ChallengeKey interface {
	Challenge(seed []byte) ([]byte, error)
}

// CompositeKey combines key factors. Factor order is significant: the
// same factors added in a different order produce a different raw key.
type CompositeKey struct {
	keys       []Key
	challenges []ChallengeKey
}

func NewCompositeKey() *CompositeKey {
	return &CompositeKey{}
}

func (c *CompositeKey) AddKey(k Key) {
	c.keys = append(c.keys, k)
}

func (c *CompositeKey) AddChallengeKey(k ChallengeKey) {
	c.challenges = append(c.challenges, k)
}

// IsEmpty reports whether no factors have been added
func (c *CompositeKey) IsEmpty() bool {
	return len(c.keys) == 0 && len(c.challenges) == 0
}

// RawKey folds all key factors through SHA-256 in insertion order
func (c *CompositeKey) RawKey() []byte {
	h := sha256.New()
	for _, k := range c.keys {
		raw := k.RawKey()
		h.Write(raw)
		crypto.ClearBytes(raw)
	}
	return h.Sum(nil)
}

// Challenge folds the responses of all challenge factors for the given
// seed. With no challenge factors it returns nil, nil; a failing factor
// aborts the whole challenge.
func (c *CompositeKey) Challenge(seed []byte) ([]byte, error) {
	if len(c.challenges) == 0 {
		return nil, nil
	}
	h := sha256.New()
	for _, ck := range c.challenges {
		resp, err := ck.Challenge(seed)
		if err != nil {
			return nil, err
		}
		h.Write(resp)
		crypto.ClearBytes(resp)
	}
	return h.Sum(nil), nil
}

// Equals compares the key-factor digests of two composites in constant
// time. Challenge factors are compared by count only, since their
// responses depend on a seed.
func (c *CompositeKey) Equals(other *CompositeKey) bool {
	if other == nil {
		return false
	}
	if len(c.challenges) != len(other.challenges) {
		return false
	}
	a := c.RawKey()
	b := other.RawKey()
	defer crypto.ClearBytes(a)
	defer crypto.ClearBytes(b)
	return crypto.ConstantTimeCompare(a, b)
}

// Clear wipes any factor that holds key material
func (c *CompositeKey) Clear() {
	for _, k := range c.keys {
		if w, ok := k.(interface{ Clear() }); ok {
			w.Clear()
		}
	}
	for _, ck := range c.challenges {
		if w, ok := ck.(interface{ Clear() }); ok {
			w.Clear()
		}
	}
}
