// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/foodgram/internal/auth"
	"github.com/carterperez-dev/foodgram/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID and GetByEmail serve authentication, which sees users as
// auth.UserInfo.
func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	return asInfo(s.repo.GetByID(ctx, id))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	return asInfo(s.repo.GetByEmail(ctx, strings.ToLower(email)))
}

func asInfo(u *User, err error) (*auth.UserInfo, error) {
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func checkUsername(username string) error {
	switch {
	case !UsernamePattern.MatchString(username):
		return core.NewValidationError("username", "username contains invalid characters")
	case IsReservedUsername(username):
		return core.NewValidationError("username", "this username is not allowed")
	}
	return nil
}

// Create registers a user. The caller supplies the password hash; emails
// are stored lower-cased and identity fields never change afterwards.
func (s *Service) Create(ctx context.Context, nu auth.NewUser) (*auth.UserInfo, error) {
	if err := checkUsername(nu.Username); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(nu.Email),
		Username:     nu.Username,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PasswordHash: nu.PasswordHash,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "user created", "user_id", u.ID, "username", u.Username)
	return toUserInfo(u), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// GetProfile returns a user as seen by viewerID, who may be anonymous.
func (s *Service) GetProfile(ctx context.Context, viewerID, id string) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	follows, err := s.repo.SubscribedAmong(ctx, viewerID, []string{u.ID})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	resp := ToUserResponse(u, follows[u.ID])
	return &resp, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(u, false)
	return &resp, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	viewerID string,
	params ListUsersParams,
) ([]UserResponse, int, error) {
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	follows, err := s.repo.SubscribedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return ToUserResponseList(users, follows), total, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
