// AngelaMos | 2026
// ingredient.go

package ingredient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/foodgram/internal/core"
)

type Ingredient struct {
	ID              string `db:"id"               json:"id"`
	Name            string `db:"name"             json:"name"`
	MeasurementUnit string `db:"measurement_unit" json:"measurement_unit"`
}

type Repository interface {
	List(ctx context.Context, namePrefix string) ([]Ingredient, error)
	GetByID(ctx context.Context, id string) (*Ingredient, error)
	GetByIDs(ctx context.Context, ids []string) ([]Ingredient, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// escapeLike neutralises LIKE wildcards in user input.
var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns ingredients whose name starts with namePrefix, compared
// case-insensitively. An empty prefix lists everything.
func (r *repository) List(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	items := []Ingredient{}

	if namePrefix == "" {
		if err := r.db.SelectContext(ctx, &items,
			`SELECT id, name, measurement_unit FROM ingredients ORDER BY name, measurement_unit`); err != nil {
			return nil, fmt.Errorf("list ingredients: %w", err)
		}
		return items, nil
	}

	query := `
		SELECT id, name, measurement_unit
		FROM ingredients
		WHERE LOWER(name) LIKE LOWER($1) || '%'
		ORDER BY name, measurement_unit`

	if err := r.db.SelectContext(ctx, &items, query, escapeLike.Replace(namePrefix)); err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return items, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Ingredient, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get ingredient %q: %w", id, core.ErrNotFound)
	}

	var i Ingredient
	err := r.db.GetContext(ctx, &i,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get ingredient: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, core.MapStoreError("get ingredient", err)
	}
	return &i, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Ingredient, error) {
	items := []Ingredient{}
	ids = core.UUIDsOnly(ids)
	if len(ids) == 0 {
		return items, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, name, measurement_unit FROM ingredients WHERE id IN (?)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build ingredients query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}
	return items, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM ingredients`); err != nil {
		return 0, fmt.Errorf("count ingredients: %w", err)
	}
	return n, nil
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ingredients", h.List)
	r.Get("/ingredients/{ingredientID}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		core.WriteError(w, err)
		return
	}
	core.OK(w, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "ingredientID"))
	if err != nil {
		core.WriteError(w, err)
		return
	}
	core.OK(w, item)
}
