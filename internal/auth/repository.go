// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/foodgram/internal/core"
)

// Repository persists refresh-token sessions.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkRotated(ctx context.Context, id, successorID string) error
	Revoke(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID string) error
	ActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

const selectToken = `
	SELECT id, user_id, token_hash, family_id, expires_at, created_at,
	       is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address
	FROM refresh_tokens`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ExpiresAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		return core.MapStoreError("create refresh token", err)
	}

	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.findOne(ctx, "token_hash", tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("find refresh token %q: %w", id, core.ErrNotFound)
	}
	return r.findOne(ctx, "id", id)
}

func (r *repository) findOne(ctx context.Context, column, value string) (*RefreshToken, error) {
	var token RefreshToken

	err := r.db.GetContext(ctx, &token, selectToken+` WHERE `+column+` = $1`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// MarkRotated links id to its successor. Only an unused token can rotate,
// so two concurrent refreshes of the same token cannot both succeed.
func (r *repository) MarkRotated(ctx context.Context, id, successorID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND NOT is_used`

	n, err := r.exec(ctx, query, id, successorID)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rotate refresh token: %w", core.ErrConflict)
	}

	return nil
}

func (r *repository) Revoke(ctx context.Context, id string) error {
	n, err := r.revokeWhere(ctx, "id", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := r.revokeWhere(ctx, "family_id", familyID)
	return err
}

func (r *repository) RevokeUser(ctx context.Context, userID string) error {
	_, err := r.revokeWhere(ctx, "user_id", userID)
	return err
}

func (r *repository) revokeWhere(ctx context.Context, column, value string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE ` + column + ` = $1 AND revoked_at IS NULL`

	n, err := r.exec(ctx, query, value)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens by %s: %w", column, err)
	}
	return n, nil
}

func (r *repository) ActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error) {
	query := selectToken + `
		WHERE user_id = $1
		  AND revoked_at IS NULL
		  AND NOT is_used
		  AND expires_at > NOW()
		ORDER BY created_at DESC`

	tokens := []RefreshToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := r.exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
		time.Now().Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

func (r *repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
