// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/foodgram/internal/config"
	"github.com/carterperez-dev/foodgram/internal/core"
)

func TestJWT_IssueAndParse(t *testing.T) {
	m := newTestJWT(t)

	tok, err := m.IssueAccessToken(&UserInfo{ID: "u1", Role: "admin", TokenVersion: 3})
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, tok.JTI, claims.JTI)
	assert.WithinDuration(t, tok.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestJWT_TamperedTokenIsInvalid(t *testing.T) {
	m := newTestJWT(t)

	tok, err := m.IssueAccessToken(&UserInfo{ID: "u1", Role: "user"})
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok.Token[:len(tok.Token)-4] + "AAAA")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	other := newTestJWT(t)
	_, err = other.ParseAccessToken(tok.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "signed by a different key")
}

func TestJWT_ExpiredToken(t *testing.T) {
	dir := t.TempDir()
	priv, pub := filepath.Join(dir, "k.pem"), filepath.Join(dir, "k.pub")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:    priv,
		PublicKeyPath:     pub,
		AccessTokenExpire: -time.Minute,
		Issuer:            "foodgram-test",
		Audience:          "foodgram-test",
	})
	require.NoError(t, err)

	tok, err := m.IssueAccessToken(&UserInfo{ID: "u1", Role: "user"})
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWT_KeyIDIsStableAndPublished(t *testing.T) {
	dir := t.TempDir()
	priv, pub := filepath.Join(dir, "k.pem"), filepath.Join(dir, "k.pub")
	require.NoError(t, GenerateKeyPair(priv, pub))

	cfg := config.JWTConfig{PrivateKeyPath: priv, PublicKeyPath: pub, Issuer: "i", Audience: "a"}
	first, err := NewJWTManager(cfg)
	require.NoError(t, err)
	second, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.Len(t, first.KeyID(), 16)
	assert.Equal(t, first.KeyID(), second.KeyID())

	w := httptest.NewRecorder()
	first.JWKSHandler()(w, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), first.KeyID())
	assert.NotContains(t, w.Body.String(), `"d"`, "private component must not be published")
}
