package crypto

import (
	"errors"
	"fmt"
)

// KDF algorithm names as stored in the container config
const (
	KdfArgon2 = "argon2id"
	KdfPbkdf2 = "pbkdf2-sha256"
)

var (
	ErrKdfParams  = errors.New("invalid kdf parameters")
	ErrKdfUnknown = errors.New("unknown kdf algorithm")
)

// Kdf is a key derivation function with its parameters and salt.
// Transform is deterministic for fixed parameters and salt.
type Kdf interface {
	Name() string
	Transform(data []byte) ([]byte, error)
	Salt() []byte
	RandomizeSalt() error
	Params() KdfParams
	Clone() Kdf
}

// KdfParams is the serializable form of a Kdf. Fields not used by an
// algorithm stay zero.
type KdfParams struct {
	Name       string `json:"name"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations,omitempty"` // pbkdf2
	Time       uint32 `json:"time,omitempty"`       // argon2
	MemoryKiB  uint32 `json:"memoryKiB,omitempty"`  // argon2
	Threads    uint8  `json:"threads,omitempty"`    // argon2
}

// KdfFromParams reconstructs a Kdf from its stored parameters
func KdfFromParams(p KdfParams) (Kdf, error) {
	switch p.Name {
	case KdfArgon2:
		return &Argon2Kdf{
			salt:    append([]byte(nil), p.Salt...),
			time:    p.Time,
			memory:  p.MemoryKiB,
			threads: p.Threads,
		}, nil
	case KdfPbkdf2:
		return &Pbkdf2Kdf{
			salt:       append([]byte(nil), p.Salt...),
			iterations: p.Iterations,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrKdfUnknown, p.Name)
	}
}
