package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

var ErrNoKey = errors.New("no key set")

// DatabaseKey is the composite credential the envelope derives from.
// RawKey returns the concatenated key-factor digest; Challenge asks any
// challenge-response factors to answer for the given seed and fails when
// a factor (such as a hardware token) is unreachable.
type DatabaseKey interface {
	RawKey() []byte
	Challenge(seed []byte) ([]byte, error)
}

// KeyEnvelope owns the key-derivation state of one database: cipher and
// compression selection, the KDF with its salt, the master seed and the
// transformed key derived from the composite credential. The composite
// key itself is shared with the caller and never serialized.
//
// Every state change derives into temporaries and commits only on
// success, so a failed key change or KDF swap leaves the previous,
// still-working state untouched.
type KeyEnvelope struct {
	cipher            CipherID
	compression       CompressionAlgorithm
	kdf               Kdf
	masterSeed        []byte
	transformedKey    []byte
	challengeResponse []byte
	key               DatabaseKey
	hasKey            bool
}

// NewKeyEnvelope creates an envelope with the default cipher suite:
// AES-256-GCM, gzip compression and Argon2id
func NewKeyEnvelope() *KeyEnvelope {
	return &KeyEnvelope{
		cipher:      AES256GCM,
		compression: CompressionGZip,
		kdf:         NewArgon2Kdf(),
		masterSeed:  mustRandom(MasterSeedSize),
	}
}

func (e *KeyEnvelope) Cipher() CipherID                   { return e.cipher }
func (e *KeyEnvelope) SetCipher(id CipherID)              { e.cipher = id }
func (e *KeyEnvelope) Compression() CompressionAlgorithm  { return e.compression }
func (e *KeyEnvelope) SetCompression(c CompressionAlgorithm) { e.compression = c }
func (e *KeyEnvelope) Kdf() Kdf                           { return e.kdf }
func (e *KeyEnvelope) Key() DatabaseKey                   { return e.key }
func (e *KeyEnvelope) HasKey() bool                       { return e.hasKey }

// SetKdf replaces the KDF without re-deriving. Used by the container
// loader before ResolveKey; any previously derived key is invalidated.
func (e *KeyEnvelope) SetKdf(kdf Kdf) {
	e.kdf = kdf
	ClearBytes(e.transformedKey)
	e.transformedKey = nil
	e.hasKey = false
}

// MasterSeed returns a copy of the master seed
func (e *KeyEnvelope) MasterSeed() []byte {
	return append([]byte(nil), e.masterSeed...)
}

// SetMasterSeed installs a stored master seed. Used by the container
// loader before ResolveKey; any previously derived key is invalidated.
func (e *KeyEnvelope) SetMasterSeed(seed []byte) {
	ClearBytes(e.masterSeed)
	e.masterSeed = append([]byte(nil), seed...)
	ClearBytes(e.transformedKey)
	e.transformedKey = nil
	e.hasKey = false
}

// TransformedKey returns a copy of the transformed key
func (e *KeyEnvelope) TransformedKey() []byte {
	return append([]byte(nil), e.transformedKey...)
}

// SetKey installs a new composite key: the master seed is regenerated,
// the KDF salt optionally re-randomized, and the transformed key derived
// before anything is committed. On error the envelope keeps its previous
// key material unchanged.
//
// A nil key clears the envelope.
func (e *KeyEnvelope) SetKey(key DatabaseKey, updateTransformSalt bool) error {
	if key == nil {
		e.Clear()
		return nil
	}

	kdf := e.kdf.Clone()
	if updateTransformSalt {
		if err := kdf.RandomizeSalt(); err != nil {
			return fmt.Errorf("failed to randomize transform salt: %w", err)
		}
	}

	seed, err := GenerateRandom(MasterSeedSize)
	if err != nil {
		return fmt.Errorf("failed to generate master seed: %w", err)
	}

	challenge, err := key.Challenge(seed)
	if err != nil {
		return fmt.Errorf("challenge-response failed: %w", err)
	}

	transformed, err := transformWith(kdf, seed, key)
	if err != nil {
		return err
	}

	e.commit(kdf, seed, transformed, challenge, key)
	return nil
}

// ResolveKey derives the transformed key for an existing envelope using
// the stored master seed and KDF state. This is the unlock path: the
// container loader installs seed and KDF params first, then resolves the
// candidate credential against them.
func (e *KeyEnvelope) ResolveKey(key DatabaseKey) error {
	if key == nil {
		return ErrNoKey
	}

	challenge, err := key.Challenge(e.masterSeed)
	if err != nil {
		return fmt.Errorf("challenge-response failed: %w", err)
	}

	transformed, err := transformWith(e.kdf, e.masterSeed, key)
	if err != nil {
		return err
	}

	seed := append([]byte(nil), e.masterSeed...)
	e.commit(e.kdf, seed, transformed, challenge, key)
	return nil
}

// VerifyKey re-derives from the candidate against the stored seed and
// KDF and compares in constant time. The envelope is not mutated.
func (e *KeyEnvelope) VerifyKey(candidate DatabaseKey) bool {
	if !e.hasKey || candidate == nil {
		return false
	}
	transformed, err := transformWith(e.kdf, e.masterSeed, candidate)
	if err != nil {
		return false
	}
	defer ClearBytes(transformed)
	return ConstantTimeCompare(transformed, e.transformedKey)
}

// ChangeKdf re-derives the current key under a replacement KDF and swaps
// KDF and transformed key atomically. On error both remain unchanged.
func (e *KeyEnvelope) ChangeKdf(kdf Kdf) error {
	if !e.hasKey {
		return ErrNoKey
	}
	transformed, err := transformWith(kdf, e.masterSeed, e.key)
	if err != nil {
		return err
	}
	ClearBytes(e.transformedKey)
	e.kdf = kdf
	e.transformedKey = transformed
	return nil
}

// ChallengeMasterSeed recomputes the challenge response for the given
// seed, asking the composite key's challenge factors again
func (e *KeyEnvelope) ChallengeMasterSeed(seed []byte) error {
	if e.key == nil {
		return ErrNoKey
	}
	resp, err := e.key.Challenge(seed)
	if err != nil {
		return fmt.Errorf("challenge-response failed: %w", err)
	}
	ClearBytes(e.challengeResponse)
	e.challengeResponse = resp
	return nil
}

// EncryptionKey derives the payload encryption key from the transformed
// key and the challenge response
func (e *KeyEnvelope) EncryptionKey() ([]byte, error) {
	if !e.hasKey {
		return nil, ErrNoKey
	}
	h := sha256.New()
	h.Write(e.transformedKey)
	h.Write(e.challengeResponse)
	return h.Sum(nil), nil
}

// Clear wipes all derived key material
func (e *KeyEnvelope) Clear() {
	ClearBytes(e.transformedKey)
	ClearBytes(e.challengeResponse)
	e.transformedKey = nil
	e.challengeResponse = nil
	e.key = nil
	e.hasKey = false
}

func (e *KeyEnvelope) commit(kdf Kdf, seed, transformed, challenge []byte, key DatabaseKey) {
	ClearBytes(e.masterSeed)
	ClearBytes(e.transformedKey)
	ClearBytes(e.challengeResponse)
	e.kdf = kdf
	e.masterSeed = seed
	e.transformedKey = transformed
	e.challengeResponse = challenge
	e.key = key
	e.hasKey = true
}

// transformWith derives a transformed key: the master seed and the raw
// composite key are folded through SHA-256 and fed to the KDF
func transformWith(kdf Kdf, seed []byte, key DatabaseKey) ([]byte, error) {
	raw := key.RawKey()
	defer ClearBytes(raw)

	h := sha256.New()
	h.Write(seed)
	h.Write(raw)
	seeded := h.Sum(nil)
	defer ClearBytes(seeded)

	out, err := kdf.Transform(seeded)
	if err != nil {
		return nil, fmt.Errorf("key transform failed: %w", err)
	}
	return out, nil
}
