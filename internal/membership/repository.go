// AngelaMos | 2026
// repository.go

package membership

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/recipe"
)

type Kind string

const (
	KindFavorite     Kind = "favorite"
	KindCart         Kind = "cart"
	KindSubscription Kind = "subscription"
)

// relation returns the join table and its target column for k.
func (k Kind) relation() (table, targetColumn string, err error) {
	switch k {
	case KindFavorite:
		return "favorite_recipes", "recipe_id", nil
	case KindCart:
		return "shopping_carts", "recipe_id", nil
	case KindSubscription:
		return "subscriptions", "author_id", nil
	}
	return "", "", fmt.Errorf("membership kind %q: %w", k, core.ErrInvalidInput)
}

type Repository interface {
	Exists(ctx context.Context, kind Kind, userID, targetID string) (bool, error)
	Insert(ctx context.Context, kind Kind, userID, targetID string) error
	Delete(ctx context.Context, kind Kind, userID, targetID string) error

	ListSubscriptions(ctx context.Context, userID string, limit, offset int) ([]recipe.Author, int, error)
	RecentRecipes(ctx context.Context, authorIDs []string, perAuthor int) ([]recipe.Recipe, error)
	RecipeCounts(ctx context.Context, authorIDs []string) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Exists(ctx context.Context, kind Kind, userID, targetID string) (bool, error) {
	table, col, err := kind.relation()
	if err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE user_id = $1 AND ` + col + ` = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, targetID); err != nil {
		return false, fmt.Errorf("check %s: %w", kind, err)
	}

	return exists, nil
}

func (r *repository) Insert(ctx context.Context, kind Kind, userID, targetID string) error {
	table, col, err := kind.relation()
	if err != nil {
		return err
	}

	query := `INSERT INTO ` + table + ` (user_id, ` + col + `) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, targetID); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("add %s: %w", kind, core.ErrAlreadyExists)
		}
		if kind == KindSubscription && core.IsCheckViolation(err) {
			return fmt.Errorf("add %s: %w", kind, core.ErrSelfSubscription)
		}
		return core.MapStoreError("add "+string(kind), err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, kind Kind, userID, targetID string) error {
	table, col, err := kind.relation()
	if err != nil {
		return err
	}

	query := `DELETE FROM ` + table + ` WHERE user_id = $1 AND ` + col + ` = $2`
	result, err := r.db.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}
	if rows == 0 {
		return fmt.Errorf("remove %s: %w", kind, core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListSubscriptions(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]recipe.Author, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	query := `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.user_id = $1
		ORDER BY u.username, u.id
		LIMIT $2 OFFSET $3`

	authors := []recipe.Author{}
	if err := r.db.SelectContext(ctx, &authors, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	return authors, total, nil
}

// RecentRecipes returns each author's recipes newest first. A negative
// perAuthor means no cap.
func (r *repository) RecentRecipes(
	ctx context.Context,
	authorIDs []string,
	perAuthor int,
) ([]recipe.Recipe, error) {
	recipes := []recipe.Recipe{}
	if len(authorIDs) == 0 {
		return recipes, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, author_id, name, image, text, cooking_time, pub_date
		FROM (
			SELECT r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date,
			       ROW_NUMBER() OVER (PARTITION BY r.author_id ORDER BY r.pub_date DESC, r.id) AS rn
			FROM recipes r
			WHERE r.author_id IN (?)
		) ranked
		WHERE ? < 0 OR rn <= ?
		ORDER BY author_id, pub_date DESC, id`,
		authorIDs, perAuthor, perAuthor,
	)
	if err != nil {
		return nil, fmt.Errorf("build recent recipes query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &recipes, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("recent recipes: %w", err)
	}

	return recipes, nil
}

func (r *repository) RecipeCounts(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(
		`SELECT author_id, COUNT(*) AS n FROM recipes WHERE author_id IN (?) GROUP BY author_id`,
		authorIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build recipe counts query: %w", err)
	}

	var rows []struct {
		AuthorID string `db:"author_id"`
		N        int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("recipe counts: %w", err)
	}

	for _, row := range rows {
		counts[row.AuthorID] = row.N
	}

	return counts, nil
}
