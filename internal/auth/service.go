// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

var (
	ErrTokenReuse = errors.New("refresh token reuse detected")
	ErrUserExists = fmt.Errorf("email or username already taken: %w", core.ErrDuplicateKey)
)

type UserInfo struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	TokenVersion int
}

type NewUser struct {
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
}

// UserProvider is the slice of the user store authentication needs.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, nu NewUser) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// TokenBlacklist stores revoked access token ids until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistPrefix = "auth:revoked:"

type redisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) TokenBlacklist {
	return &redisBlacklist{client: client}
}

func (b *redisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, blacklistPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	return nil
}

func (b *redisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

// Client identifies the device a session was opened from.
type Client struct {
	UserAgent string
	IP        string
}

type Service struct {
	sessions  Repository
	jwt       *JWTManager
	users     UserProvider
	blacklist TokenBlacklist
}

// NewService wires authentication. blacklist may be nil, in which case
// logout only ends the refresh session and access tokens live out their
// short lifetime.
func NewService(
	sessions Repository,
	jwt *JWTManager,
	users UserProvider,
	blacklist TokenBlacklist,
) *Service {
	return &Service{
		sessions:  sessions,
		jwt:       jwt,
		users:     users,
		blacklist: blacklist,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest, client Client) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, core.ErrNotFound):
		//nolint:errcheck // spend the same hashing work for unknown emails
		_, _, _ = core.VerifyPasswordTimingSafe(req.Password, "")
		return nil, core.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, upgraded, err := core.VerifyPasswordTimingSafe(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, core.ErrInvalidCredentials
	}

	if upgraded != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, upgraded); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	return s.openSession(ctx, user, client, "")
}

func (s *Service) Register(ctx context.Context, req RegisterRequest, client Client) (*AuthResponse, error) {
	if err := core.CheckPasswordStrength(
		req.Password,
		req.Username, req.Email, req.FirstName, req.LastName,
	); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, NewUser{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.openSession(ctx, user, client, "")
}

// Refresh exchanges a refresh token for a new pair. Presenting a token
// that was already rotated revokes its whole family.
func (s *Service) Refresh(ctx context.Context, refreshToken string, client Client) (*AuthResponse, error) {
	stored, err := s.sessions.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	switch {
	case stored.IsUsed:
		return nil, s.reuseDetected(ctx, stored)
	case stored.IsRevoked():
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case !stored.Usable(time.Now()):
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	successor := uuid.New().String()
	if err := s.sessions.MarkRotated(ctx, stored.ID, successor); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, s.reuseDetected(ctx, stored)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return s.issue(ctx, user, client, stored.FamilyID, successor)
}

func (s *Service) reuseDetected(ctx context.Context, stored *RefreshToken) error {
	if err := s.sessions.RevokeFamily(ctx, stored.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family failed", "family_id", stored.FamilyID, "error", err)
	}
	slog.WarnContext(ctx, "refresh token reuse detected",
		"user_id", stored.UserID,
		"family_id", stored.FamilyID,
	)
	return ErrTokenReuse
}

// Logout ends the presented refresh session and blacklists the calling
// access token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, refreshToken string, claims *middleware.AccessTokenClaims) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if err := s.blacklistToken(ctx, claims); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if refreshToken == "" {
		return nil
	}

	stored, err := s.sessions.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if stored.UserID != claims.UserID {
		return fmt.Errorf("logout: foreign session: %w", core.ErrForbidden)
	}

	if err := s.sessions.Revoke(ctx, stored.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// LogoutAll revokes every refresh session and bumps the token version so
// outstanding access tokens fail verification.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) blacklistToken(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if s.blacklist == nil || claims.JTI == "" {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.blacklist.Revoke(ctx, claims.JTI, ttl)
}

// VerifyAccessToken implements middleware.TokenVerifier. A blacklist
// outage is logged and tolerated; the token version check still applies.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil && claims.JTI != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "token blacklist unavailable", "error", err)
		case revoked:
			return nil, fmt.Errorf("verify access token: %w", core.ErrTokenRevoked)
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("verify access token: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify access token: stale version: %w", core.ErrTokenRevoked)
	}

	claims.Role = user.Role
	return claims, nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	tokens, err := s.sessions.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionInfo, 0, len(tokens))
	for i := range tokens {
		out = append(out, tokens[i].Session())
	}
	return out, nil
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	token, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	return s.sessions.Revoke(ctx, sessionID)
}

// ChangePassword replaces the user's password. A no-op change is refused
// before the store is consulted; the current password must verify and the
// new one must satisfy the strength policy. Every session ends afterwards.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if userID == "" {
		return fmt.Errorf("change password: %w", core.ErrUnauthorized)
	}

	if currentPassword == newPassword {
		return fmt.Errorf("change password: %w", core.ErrNoOpChange)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := core.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return fmt.Errorf("change password: %w", core.ErrInvalidCredentials)
	}

	if err := core.CheckPasswordStrength(
		newPassword,
		user.Username, user.Email, user.FirstName, user.LastName,
	); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// PruneSessions deletes refresh tokens that expired more than olderThan ago.
func (s *Service) PruneSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.sessions.DeleteExpired(ctx, olderThan)
}

func (s *Service) openSession(ctx context.Context, user *UserInfo, client Client, familyID string) (*AuthResponse, error) {
	if familyID == "" {
		familyID = uuid.New().String()
	}
	return s.issue(ctx, user, client, familyID, uuid.New().String())
}

// issue stores a new refresh session with id sessionID and signs the
// matching access token.
func (s *Service) issue(
	ctx context.Context,
	user *UserInfo,
	client Client,
	familyID, sessionID string,
) (*AuthResponse, error) {
	access, err := s.jwt.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := core.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}

	session := &RefreshToken{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: core.HashToken(refresh),
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(s.jwt.RefreshTTL()),
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			ExpiresIn:    int(time.Until(access.ExpiresAt).Seconds()),
			ExpiresAt:    access.ExpiresAt,
		},
	}, nil
}
