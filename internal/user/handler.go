// AngelaMos | 2026
// handler.go

package user

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

// RegisterRoutes mounts the read side of /users. Registration, password
// change and subscriptions are mounted by their owning packages on the same
// prefix, so only fixed paths and /{userID} live here.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/users", h.ListUsers)
		r.Get("/users/{userID}", h.GetUser)
	})

	r.With(authenticator).Get("/users/me", h.GetMe)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	me, err := h.service.GetMe(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, me)
}

// ListUsers pages through every user; ?page and ?limit follow the recipe
// list conventions.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := ListUsersParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "limit", defaultPageSize),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(ctx, middleware.GetUserID(ctx), params)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Paginated(w, users, params.Page, params.PageSize, total)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.service.GetProfile(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "userID"))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, profile)
}
