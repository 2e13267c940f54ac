package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Pbkdf2DefaultIters is the default PBKDF2 iteration count (OWASP minimum)
const Pbkdf2DefaultIters = 210000

// Pbkdf2Kdf derives keys with PBKDF2-HMAC-SHA256
type Pbkdf2Kdf struct {
	salt       []byte
	iterations int
}

// NewPbkdf2Kdf creates a PBKDF2 KDF with a fresh random salt
func NewPbkdf2Kdf(iterations int) *Pbkdf2Kdf {
	return &Pbkdf2Kdf{
		salt:       mustRandom(SaltSize),
		iterations: iterations,
	}
}

func (k *Pbkdf2Kdf) Name() string {
	return KdfPbkdf2
}

func (k *Pbkdf2Kdf) Transform(data []byte) ([]byte, error) {
	if len(k.salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrKdfParams)
	}
	if k.iterations < 1 {
		return nil, fmt.Errorf("%w: iterations=%d", ErrKdfParams, k.iterations)
	}
	return pbkdf2.Key(data, k.salt, k.iterations, KeySize, sha256.New), nil
}

func (k *Pbkdf2Kdf) Salt() []byte {
	return append([]byte(nil), k.salt...)
}

func (k *Pbkdf2Kdf) RandomizeSalt() error {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return err
	}
	ClearBytes(k.salt)
	k.salt = salt
	return nil
}

func (k *Pbkdf2Kdf) Params() KdfParams {
	return KdfParams{
		Name:       KdfPbkdf2,
		Salt:       k.Salt(),
		Iterations: k.iterations,
	}
}

func (k *Pbkdf2Kdf) Clone() Kdf {
	return &Pbkdf2Kdf{
		salt:       k.Salt(),
		iterations: k.iterations,
	}
}
