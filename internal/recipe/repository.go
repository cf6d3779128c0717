// AngelaMos | 2026
// repository.go

package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/tag"
)

type Repository interface {
	// WithinTx runs fn against a transaction-bound repository. Nested calls
	// reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error

	Create(ctx context.Context, r *Recipe) error
	UpdateScalars(ctx context.Context, r *Recipe) error
	ReplaceTags(ctx context.Context, recipeID string, tagIDs []string) error
	ReplaceIngredients(ctx context.Context, recipeID string, items []IngredientAmount) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*Recipe, error)
	// GetForUpdate reads the row and holds its lock until the surrounding
	// transaction ends. Outside WithinTx the lock is released immediately.
	GetForUpdate(ctx context.Context, id string) (*Recipe, error)
	List(ctx context.Context, viewerID string, f Filter) ([]Recipe, int, error)
	Count(ctx context.Context) (int, error)

	TagsFor(ctx context.Context, recipeIDs []string) (map[string][]tag.Tag, error)
	IngredientsFor(ctx context.Context, recipeIDs []string) (map[string][]IngredientAmount, error)
	AuthorsByID(ctx context.Context, ids []string) (map[string]Author, error)
	FavoritedAmong(ctx context.Context, viewerID string, recipeIDs []string) (map[string]bool, error)
	InCartAmong(ctx context.Context, viewerID string, recipeIDs []string) (map[string]bool, error)
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, root: db}
}

func (r *repository) WithinTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.root == nil {
		return fn(r)
	}

	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date`

func (r *repository) Create(ctx context.Context, rec *Recipe) error {
	query := `
		INSERT INTO recipes (id, author_id, name, image, text, cooking_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING pub_date`

	err := r.db.GetContext(ctx, &rec.PubDate, query,
		rec.ID,
		rec.AuthorID,
		rec.Name,
		rec.Image,
		rec.Text,
		rec.CookingTime,
	)
	if err != nil {
		return core.MapStoreError("create recipe", err)
	}

	return nil
}

// UpdateScalars writes the mutable columns. author_id and pub_date are
// never part of the statement.
func (r *repository) UpdateScalars(ctx context.Context, rec *Recipe) error {
	query := `
		UPDATE recipes
		SET name = $2, image = $3, text = $4, cooking_time = $5
		WHERE id = $1`

	return r.execOne(ctx, "update recipe", query,
		rec.ID,
		rec.Name,
		rec.Image,
		rec.Text,
		rec.CookingTime,
	)
}

func (r *repository) ReplaceTags(ctx context.Context, recipeID string, tagIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("clear recipe tags: %w", err)
	}

	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]tagLink, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, tagLink{RecipeID: recipeID, TagID: id})
	}

	if _, err := sqlx.NamedExecContext(ctx, r.db,
		`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (:recipe_id, :tag_id)`,
		links,
	); err != nil {
		return core.MapStoreError("insert recipe tags", err)
	}

	return nil
}

func (r *repository) ReplaceIngredients(
	ctx context.Context,
	recipeID string,
	items []IngredientAmount,
) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	links := make([]ingredientLink, 0, len(items))
	for _, it := range items {
		links = append(links, ingredientLink{
			RecipeID:     recipeID,
			IngredientID: it.IngredientID,
			Amount:       it.Amount,
		})
	}

	if _, err := sqlx.NamedExecContext(ctx, r.db,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
		 VALUES (:recipe_id, :ingredient_id, :amount)`,
		links,
	); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert recipe ingredients: %w", core.ErrDuplicateIngredient)
		}
		return core.MapStoreError("insert recipe ingredients", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete recipe", `DELETE FROM recipes WHERE id = $1`, id)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Recipe, error) {
	return r.getOne(ctx, "get recipe", id, "")
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Recipe, error) {
	return r.getOne(ctx, "lock recipe", id, ` FOR UPDATE`)
}

func (r *repository) getOne(ctx context.Context, op, id, suffix string) (*Recipe, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("%s %q: %w", op, id, core.ErrNotFound)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1` + suffix

	var rec Recipe
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, core.MapStoreError(op, err)
	}

	return &rec, nil
}

// List applies f and returns one page ordered newest first, plus the total
// number of matches. Favorite and cart filters need a viewer and are
// ignored for anonymous requests.
func (r *repository) List(ctx context.Context, viewerID string, f Filter) ([]Recipe, int, error) {
	var (
		where []string
		args  []any
	)

	if f.AuthorID != "" {
		if !core.IsUUID(f.AuthorID) {
			return []Recipe{}, 0, nil
		}
		where = append(where, `r.author_id = ?`)
		args = append(args, f.AuthorID)
	}

	if len(f.TagSlugs) > 0 {
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (?))`)
		args = append(args, f.TagSlugs)
	}

	if viewerID != "" && f.IsFavorited {
		where = append(where, `EXISTS (
			SELECT 1 FROM favorite_recipes fr
			WHERE fr.recipe_id = r.id AND fr.user_id = ?)`)
		args = append(args, viewerID)
	}

	if viewerID != "" && f.IsInShoppingCart {
		where = append(where, `EXISTS (
			SELECT 1 FROM shopping_carts sc
			WHERE sc.recipe_id = r.id AND sc.user_id = ?)`)
		args = append(args, viewerID)
	}

	clause := ""
	if len(where) > 0 {
		clause = ` WHERE ` + strings.Join(where, ` AND `)
	}

	var total int
	if err := r.selectIn(ctx, &total, true, `SELECT COUNT(*) FROM recipes r`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	recipes := []Recipe{}
	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	listQuery := `SELECT ` + recipeColumns + ` FROM recipes r` + clause +
		` ORDER BY r.pub_date DESC, r.id LIMIT ? OFFSET ?`

	if err := r.selectIn(ctx, &recipes, false, listQuery, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	return recipes, total, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM recipes`); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

func (r *repository) TagsFor(ctx context.Context, recipeIDs []string) (map[string][]tag.Tag, error) {
	result := make(map[string][]tag.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	var rows []recipeTagRow
	query := `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (?)
		ORDER BY t.name`

	if err := r.selectIn(ctx, &rows, false, query, recipeIDs); err != nil {
		return nil, fmt.Errorf("load recipe tags: %w", err)
	}

	for _, row := range rows {
		result[row.RecipeID] = append(result[row.RecipeID], row.Tag)
	}

	return result, nil
}

func (r *repository) IngredientsFor(
	ctx context.Context,
	recipeIDs []string,
) (map[string][]IngredientAmount, error) {
	result := make(map[string][]IngredientAmount, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	var rows []recipeIngredientRow
	query := `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (?)
		ORDER BY i.name, i.measurement_unit`

	if err := r.selectIn(ctx, &rows, false, query, recipeIDs); err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}

	for _, row := range rows {
		result[row.RecipeID] = append(result[row.RecipeID], row.IngredientAmount)
	}

	return result, nil
}

func (r *repository) AuthorsByID(ctx context.Context, ids []string) (map[string]Author, error) {
	result := make(map[string]Author, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var authors []Author
	query := `SELECT id, email, username, first_name, last_name FROM users WHERE id IN (?)`

	if err := r.selectIn(ctx, &authors, false, query, ids); err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	for _, a := range authors {
		result[a.ID] = a
	}

	return result, nil
}

func (r *repository) FavoritedAmong(
	ctx context.Context,
	viewerID string,
	recipeIDs []string,
) (map[string]bool, error) {
	return r.markedAmong(ctx, "favorite_recipes", viewerID, recipeIDs)
}

func (r *repository) InCartAmong(
	ctx context.Context,
	viewerID string,
	recipeIDs []string,
) (map[string]bool, error) {
	return r.markedAmong(ctx, "shopping_carts", viewerID, recipeIDs)
}

// markedAmong reports which recipeIDs the viewer has a row for in table.
// table is always one of the two package constants above.
func (r *repository) markedAmong(
	ctx context.Context,
	table, viewerID string,
	recipeIDs []string,
) (map[string]bool, error) {
	result := make(map[string]bool, len(recipeIDs))
	if viewerID == "" || len(recipeIDs) == 0 {
		return result, nil
	}

	var ids []string
	query := `SELECT recipe_id FROM ` + table + ` WHERE user_id = ? AND recipe_id IN (?)`

	if err := r.selectIn(ctx, &ids, false, query, viewerID, recipeIDs); err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}

	for _, id := range ids {
		result[id] = true
	}

	return result, nil
}

// selectIn expands slice arguments, rebinds ? to the driver's placeholder
// style and runs the query with Get (single) or Select.
func (r *repository) selectIn(
	ctx context.Context,
	dest any,
	single bool,
	query string,
	args ...any,
) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return fmt.Errorf("expand query: %w", err)
	}

	expanded = r.db.Rebind(expanded)

	if single {
		return r.db.GetContext(ctx, dest, expanded, expandedArgs...)
	}
	return r.db.SelectContext(ctx, dest, expanded, expandedArgs...)
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.MapStoreError(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
