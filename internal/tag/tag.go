// AngelaMos | 2026
// tag.go

package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/foodgram/internal/core"
)

type Tag struct {
	ID    string `db:"id"    json:"id"`
	Name  string `db:"name"  json:"name"`
	Color string `db:"color" json:"color"`
	Slug  string `db:"slug"  json:"slug"`
}

type Repository interface {
	List(ctx context.Context) ([]Tag, error)
	GetByID(ctx context.Context, id string) (*Tag, error)
	GetByIDs(ctx context.Context, ids []string) ([]Tag, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := r.db.SelectContext(ctx, &tags,
		`SELECT id, name, color, slug FROM tags ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tag, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get tag %q: %w", id, core.ErrNotFound)
	}

	var t Tag
	err := r.db.GetContext(ctx, &t,
		`SELECT id, name, color, slug FROM tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tag: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, core.MapStoreError("get tag", err)
	}
	return &t, nil
}

// GetByIDs returns the tags that exist among ids, ordered by name. Unknown
// ids are silently absent; callers compare lengths.
func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Tag, error) {
	tags := []Tag{}
	ids = core.UUIDsOnly(ids)
	if len(ids) == 0 {
		return tags, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, name, color, slug FROM tags WHERE id IN (?) ORDER BY name`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build tags query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &tags, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	return tags, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tags`); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
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
	r.Get("/tags", h.List)
	r.Get("/tags/{tagID}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.repo.List(r.Context())
	if err != nil {
		core.WriteError(w, err)
		return
	}
	core.OK(w, tags)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "tagID"))
	if err != nil {
		core.WriteError(w, err)
		return
	}
	core.OK(w, t)
}
