// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/foodgram/internal/config"
	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

const accessTokenType = "access"

// JWTManager signs and verifies ES256 access tokens and publishes the
// verification key as a JWKS document.
type JWTManager struct {
	signingKey jwk.Key
	verifyKey  jwk.Key
	jwks       jwk.Set
	keyID      string
	cfg        config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	raw, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	key, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	// kid is the key's RFC 7638 thumbprint, stable across restarts.
	thumb, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("key thumbprint: %w", err)
	}
	kid := base64.RawURLEncoding.EncodeToString(thumb)[:16]

	for name, value := range map[string]any{
		jwk.AlgorithmKey: jwa.ES256(),
		jwk.KeyIDKey:     kid,
	} {
		if err := key.Set(name, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
	}

	pub, err := key.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := pub.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, fmt.Errorf("build jwks: %w", err)
	}

	return &JWTManager{
		signingKey: key,
		verifyKey:  pub,
		jwks:       set,
		keyID:      kid,
		cfg:        cfg,
	}, nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	priv, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import key: %w", err)
	}

	pub, err := priv.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	for _, out := range []struct {
		path string
		key  jwk.Key
		mode os.FileMode
	}{
		{privateKeyPath, priv, 0o600},
		{publicKeyPath, pub, 0o644},
	} {
		pem, err := jwk.Pem(out.key)
		if err != nil {
			return fmt.Errorf("encode %s: %w", out.path, err)
		}
		if err := os.WriteFile(out.path, pem, out.mode); err != nil {
			return fmt.Errorf("write %s: %w", out.path, err)
		}
	}

	return nil
}

type AccessToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// IssueAccessToken signs a short-lived token for user. The token carries
// the user's token version so a logout-all invalidates it.
func (m *JWTManager) IssueAccessToken(user *UserInfo) (*AccessToken, error) {
	now := time.Now()
	jti := uuid.New().String()
	exp := now.Add(m.cfg.AccessTokenExpire)

	tok, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.cfg.Issuer).
		Audience([]string{m.cfg.Audience}).
		Subject(user.ID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(exp).
		Claim("role", user.Role).
		Claim("token_version", user.TokenVersion).
		Claim("type", accessTokenType).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256(), m.signingKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AccessToken{Token: string(signed), JTI: jti, ExpiresAt: exp}, nil
}

// ParseAccessToken verifies signature, issuer, audience and lifetime and
// returns the identity the token carries. Revocation is not checked here.
func (m *JWTManager) ParseAccessToken(raw string) (*middleware.AccessTokenClaims, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifyKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
	)
	if err != nil {
		if expired(err) {
			return nil, fmt.Errorf("parse access token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("parse access token: %w", core.ErrTokenInvalid)
	}

	var (
		kind    string
		role    string
		version float64
	)
	if tok.Get("type", &kind) != nil || kind != accessTokenType {
		return nil, fmt.Errorf("parse access token: wrong type: %w", core.ErrTokenInvalid)
	}
	if tok.Get("role", &role) != nil || tok.Get("token_version", &version) != nil {
		return nil, fmt.Errorf("parse access token: missing claims: %w", core.ErrTokenInvalid)
	}

	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return nil, fmt.Errorf("parse access token: no subject: %w", core.ErrTokenInvalid)
	}

	jti, _ := tok.JwtID()
	exp, _ := tok.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       sub,
		Role:         role,
		TokenVersion: int(version),
		JTI:          jti,
		ExpiresAt:    exp,
	}, nil
}

// expired recognises jwx's "exp not satisfied" validation failure.
func expired(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

func (m *JWTManager) RefreshTTL() time.Duration {
	return m.cfg.RefreshTokenExpire
}

func (m *JWTManager) KeyID() string {
	return m.keyID
}

func (m *JWTManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/jwk-set+json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		//nolint:errcheck // best-effort response write
		_ = json.NewEncoder(w).Encode(m.jwks)
	}
}
