package crypto_test

import (
	"strings"
	"testing"

	"github.com/scythe504/freezetag-backend/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	hasher := crypto.NewRoomPasswordHasher()

	hash, err := hasher.Hash("letmein")

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id"), "Hash should start with argon2id prefix")
	assert.NotContains(t, hash, "letmein")
}

func TestCompare(t *testing.T) {
	hasher := crypto.NewRoomPasswordHasher()
	hash, err := hasher.Hash("room-pass")
	require.NoError(t, err)

	match, err := hasher.Compare(hash, "room-pass")
	assert.NoError(t, err)
	assert.True(t, match, "Password should match")

	match, err = hasher.Compare(hash, "wrong")
	assert.NoError(t, err)
	assert.False(t, match, "Password should not match")

	match, err = hasher.Compare("invalid-hash-string", "room-pass")
	assert.ErrorIs(t, err, crypto.ErrHashComparison)
	assert.False(t, match)
}

func TestHasherParams(t *testing.T) {
	hasher := crypto.NewArgon2idHasher(2, 12*1024, 32, 16, 2)

	hash, err := hasher.Hash("test_param_check")
	require.NoError(t, err)

	// $argon2id$v=19$m=12288,t=2,p=2$salt$key
	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "m=12288,t=2,p=2", parts[3])
}
