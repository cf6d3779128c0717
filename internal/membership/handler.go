// AngelaMos | 2026
// handler.go

package membership

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

type Handler struct {
	service         *Service
	defaultPageSize int
	maxPageSize     int
}

func NewHandler(service *Service, defaultPageSize, maxPageSize int) *Handler {
	return &Handler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/recipes/{recipeID}/favorite", h.addRecipe(KindFavorite))
		r.Delete("/recipes/{recipeID}/favorite", h.removeRecipe(KindFavorite))
		r.Post("/recipes/{recipeID}/shopping_cart", h.addRecipe(KindCart))
		r.Delete("/recipes/{recipeID}/shopping_cart", h.removeRecipe(KindCart))

		r.Get("/users/subscriptions", h.ListSubscriptions)
		r.Post("/users/{userID}/subscribe", h.Subscribe)
		r.Delete("/users/{userID}/subscribe", h.Unsubscribe)
	})
}

func (h *Handler) addRecipe(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.service.AddRecipe(
			r.Context(),
			kind,
			middleware.GetUserID(r.Context()),
			chi.URLParam(r, "recipeID"),
		)
		if err != nil {
			core.WriteError(w, err)
			return
		}

		core.Created(w, resp)
	}
}

func (h *Handler) removeRecipe(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.Remove(
			r.Context(),
			kind,
			middleware.GetUserID(r.Context()),
			chi.URLParam(r, "recipeID"),
		)
		if err != nil {
			core.WriteError(w, err)
			return
		}

		core.NoContent(w)
	}
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Subscribe(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		core.QueryIntPtr(r, "recipes_limit"),
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	err := h.service.Remove(
		r.Context(),
		KindSubscription,
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	page := max(core.QueryInt(r, "page", 1), 1)
	limit := core.QueryInt(r, "limit", h.defaultPageSize)
	if limit < 1 {
		limit = h.defaultPageSize
	}
	limit = min(limit, h.maxPageSize)

	views, total, err := h.service.ListSubscriptions(
		r.Context(),
		middleware.GetUserID(r.Context()),
		core.QueryIntPtr(r, "recipes_limit"),
		page,
		limit,
	)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Paginated(w, views, page, limit, total)
}
