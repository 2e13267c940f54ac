package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Default Argon2id cost parameters (OWASP recommended baseline)
const (
	Argon2DefaultTime    = 3
	Argon2DefaultMemory  = 64 * 1024 // KiB
	Argon2DefaultThreads = 4
)

// Argon2Kdf derives keys with Argon2id
type Argon2Kdf struct {
	salt    []byte
	time    uint32
	memory  uint32 // KiB
	threads uint8
}

// NewArgon2Kdf creates an Argon2id KDF with a fresh random salt and
// default cost parameters
func NewArgon2Kdf() *Argon2Kdf {
	return &Argon2Kdf{
		salt:    mustRandom(SaltSize),
		time:    Argon2DefaultTime,
		memory:  Argon2DefaultMemory,
		threads: Argon2DefaultThreads,
	}
}

// NewArgon2KdfWithCost creates an Argon2id KDF with explicit cost parameters
func NewArgon2KdfWithCost(time, memoryKiB uint32, threads uint8) *Argon2Kdf {
	return &Argon2Kdf{
		salt:    mustRandom(SaltSize),
		time:    time,
		memory:  memoryKiB,
		threads: threads,
	}
}

func (k *Argon2Kdf) Name() string {
	return KdfArgon2
}

func (k *Argon2Kdf) Transform(data []byte) ([]byte, error) {
	if len(k.salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrKdfParams)
	}
	// argon2 requires memory >= 8*threads KiB
	if k.time < 1 || k.threads < 1 || k.memory < 8*uint32(k.threads) {
		return nil, fmt.Errorf("%w: time=%d memory=%dKiB threads=%d", ErrKdfParams, k.time, k.memory, k.threads)
	}
	return argon2.IDKey(data, k.salt, k.time, k.memory, k.threads, KeySize), nil
}

func (k *Argon2Kdf) Salt() []byte {
	return append([]byte(nil), k.salt...)
}

func (k *Argon2Kdf) RandomizeSalt() error {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return err
	}
	ClearBytes(k.salt)
	k.salt = salt
	return nil
}

func (k *Argon2Kdf) Params() KdfParams {
	return KdfParams{
		Name:      KdfArgon2,
		Salt:      k.Salt(),
		Time:      k.time,
		MemoryKiB: k.memory,
		Threads:   k.threads,
	}
}

func (k *Argon2Kdf) Clone() Kdf {
	return &Argon2Kdf{
		salt:    k.Salt(),
		time:    k.time,
		memory:  k.memory,
		threads: k.threads,
	}
}
