// AngelaMos | 2026
// handler.go

package recipe

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/recipes", h.List)
		r.Get("/recipes/{recipeID}", h.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/recipes", h.Create)
		r.Patch("/recipes/{recipeID}", h.Update)
		r.Delete("/recipes/{recipeID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		AuthorID:         q.Get("author"),
		TagSlugs:         q["tags"],
		IsFavorited:      core.QueryBool(r, "is_favorited"),
		IsInShoppingCart: core.QueryBool(r, "is_in_shopping_cart"),
		Page:             core.QueryInt(r, "page", 1),
		Limit:            core.QueryInt(r, "limit", 0),
	}

	items, total, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), f)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	f.Normalize(h.service.defaultPageSize, h.service.maxPageSize)
	core.Paginated(w, items, f.Page, f.Limit, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "recipeID"),
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecipeRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "recipeID"),
		req,
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "recipeID"),
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.NoContent(w)
}
