package crypto

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

var ErrHashComparison = errors.New("password hash comparison failed")

type Argon2idHasher struct {
	params *argon2id.Params
}

// NewArgon2idHasher creates a hasher with the given difficulty parameters.
//
// memory must be provided in Kilobytes (KB).
func NewArgon2idHasher(time, memory, keyLength, saltLength uint32, parallelism uint8) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      memory,
			Iterations:  time,
			Parallelism: parallelism,
			SaltLength:  saltLength,
			KeyLength:   keyLength,
		},
	}
}

// NewRoomPasswordHasher is tuned for short-lived room passwords checked on every join.
func NewRoomPasswordHasher() *Argon2idHasher {
	return NewArgon2idHasher(1, 16*1024, 32, 16, 2)
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return hash, nil
}

// Compare verifies a password against a hash.
func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrHashComparison, err)
	}
	return match, nil
}
