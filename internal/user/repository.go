// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/foodgram/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	// SubscribedAmong reports which of authorIDs subscriberID follows. An
	// empty subscriberID follows nobody.
	SubscribedAmong(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectUser = `SELECT id, email, username, first_name, last_name, password_hash,
		role, token_version, created_at, updated_at FROM users`

func (r *repository) Create(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO users (id, email, username, first_name, last_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING token_version, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Role)

	if err := row.Scan(&u.TokenVersion, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %q: %w", u.Username, core.ErrDuplicateKey)
		}
		return core.MapStoreError("create user", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("user by id %q: %w", id, core.ErrNotFound)
	}
	return r.findOne(ctx, "id", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "email", email)
}

// findOne loads a single user by a unique column.
func (r *repository) findOne(ctx context.Context, column, value string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, selectUser+` WHERE `+column+` = $1`, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("user by %s: %w", column, core.ErrNotFound)
	case err != nil:
		return nil, core.MapStoreError("user by "+column, err)
	}
	return &u, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.touch(ctx, "update password", id, `password_hash = $2`, passwordHash)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	return r.touch(ctx, "bump token version", id, `token_version = token_version + 1`)
}

// touch applies set to one user row and stamps updated_at. Zero affected
// rows means the user does not exist.
func (r *repository) touch(ctx context.Context, op, id, set string, args ...any) error {
	query := `UPDATE users SET ` + set + `, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	switch {
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	case n == 0:
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	params.Normalize()

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	users := []User{}
	err = r.db.SelectContext(ctx, &users,
		selectUser+` ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) SubscribedAmong(
	ctx context.Context,
	subscriberID string,
	authorIDs []string,
) (map[string]bool, error) {
	out := make(map[string]bool, len(authorIDs))
	if subscriberID == "" || len(authorIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(
		`SELECT author_id FROM subscriptions WHERE user_id = ? AND author_id IN (?)`,
		subscriberID, authorIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribed among: %w", err)
	}

	var followed []string
	if err := r.db.SelectContext(ctx, &followed, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("subscribed among: %w", err)
	}

	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
