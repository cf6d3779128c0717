// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("braised-greens-77")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	ok, err := VerifyPassword("braised-greens-77", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("braised-greens-78", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=18$m=1,t=1,p=1$aa$bb"} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, errMalformedHash, h)
	}
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	ok, upgraded, err := VerifyPasswordTimingSafe("anything", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, upgraded)

	old := Password
	Password.Time = 2
	weak, err := HashPassword("braised-greens-77")
	Password = old
	require.NoError(t, err)

	ok, upgraded, err = VerifyPasswordTimingSafe("braised-greens-77", weak)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, upgraded, ",t=1,")
}

func TestHashToken_Stable(t *testing.T) {
	tok, err := NewOpaqueToken(32)
	require.NoError(t, err)
	assert.Equal(t, HashToken(tok), HashToken(tok))
	assert.Len(t, HashToken(tok), 64)
}
