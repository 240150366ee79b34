package vault

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

var errBadKDFParams = errors.New("vault: argon2id parameters must be non-zero")

// KeyDeriver turns a passphrase and salt into a KeyLen-byte key. The same
// inputs must always yield the same key.
type KeyDeriver interface {
	DeriveKey(passphrase, salt []byte) ([]byte, error)
	Name() string
}

// Argon2id is the default deriver for format version 1.
type Argon2id struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF returns the fixed version 1 parameters: three passes over
// 64 MiB on a single lane.
func DefaultKDF() Argon2id { return Argon2id{Time: 3, Memory: 64 * 1024, Threads: 1} }

func (a Argon2id) DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if a.Time == 0 || a.Memory == 0 || a.Threads == 0 {
		return nil, fmt.Errorf("%w: %s", errBadKDFParams, a.Name())
	}
	return argon2.IDKey(passphrase, salt, a.Time, a.Memory, a.Threads, KeyLen), nil
}

func (a Argon2id) Name() string {
	return fmt.Sprintf("argon2id(t=%d,m=%dKiB,p=%d)", a.Time, a.Memory, a.Threads)
}

// Scrypt is the alternate memory-hard deriver.
type Scrypt struct {
	N, R, P int
}

func DefaultScrypt() Scrypt { return Scrypt{N: 32768, R: 8, P: 1} }

func (s Scrypt) DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	key, err := scrypt.Key(passphrase, salt, s.N, s.R, s.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("vault: scrypt: %w", err)
	}
	return key, nil
}

func (s Scrypt) Name() string {
	return fmt.Sprintf("scrypt(N=%d,r=%d,p=%d)", s.N, s.R, s.P)
}
