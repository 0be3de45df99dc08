package auth_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	auth "github.com/goliatone/go-auth-starter"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.NoError(t, auth.ComparePasswordAndHash("correct-horse", hash))
	assert.ErrorIs(t, auth.ComparePasswordAndHash("wrong-horse", hash), auth.ErrMismatchedHashAndPassword)
	assert.True(t, auth.CheckPassword(hash, "correct-horse"))
}

func TestHashPasswordEmpty(t *testing.T) {
	hash, err := auth.HashPassword("")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.False(t, auth.HasUsablePassword(hash))
	assert.False(t, auth.CheckPassword(hash, ""))
}

func TestUnusablePasswordHash(t *testing.T) {
	hash := auth.UnusablePasswordHash("secret")

	assert.False(t, auth.HasUsablePassword(hash))
	assert.False(t, auth.CheckPassword(hash, "secret"))
	assert.False(t, auth.CheckPassword(hash, ""))

	// a missing secret still yields a placeholder
	assert.False(t, auth.HasUsablePassword(auth.UnusablePasswordHash("")))
}

func TestComparePBKDF2Hash(t *testing.T) {
	salt := "pepper"
	derived := pbkdf2.Key([]byte("legacy-pass"), []byte(salt), 1000, 32, sha256.New)
	stored := "pbkdf2:sha256:1000$" + salt + "$" + hex.EncodeToString(derived)

	assert.True(t, auth.CheckPassword(stored, "legacy-pass"))
	assert.False(t, auth.CheckPassword(stored, "other-pass"))

	assert.False(t, auth.CheckPassword("pbkdf2:md5:1000$salt$abcd", "legacy-pass"))
	assert.False(t, auth.CheckPassword("pbkdf2:sha256:x$salt$abcd", "legacy-pass"))
	assert.False(t, auth.CheckPassword("pbkdf2:sha256:1000$salt", "legacy-pass"))
}
