package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.Contains(t, string(hash), "$argon2id$v=19$")

	ok, err := VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	ok, err := VerifyPassword("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := HashPassword("secret1")
	require.NoError(t, err)
	second, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plainhash",
		"$bcrypt$whatever",
		"$argon2id$v=19$t=3,m=65536,p=2$onlysalt",
	} {
		_, err := VerifyPassword("secret1", []byte(hash))
		assert.Error(t, err, "hash %q", hash)
	}
}
