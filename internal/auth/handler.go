// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
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
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/users", h.Register)
	r.With(authenticator).Post("/users/set_password", h.ChangePassword)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

func clientOf(r *http.Request) Client {
	return Client{UserAgent: r.UserAgent(), IP: middleware.ClientIP(r)}
}

// writeAuthError narrows a few auth outcomes to messages safe to show
// the caller before falling back to the shared mapping.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenReuse):
		core.JSONError(w, core.NewAppError(
			core.ErrTokenRevoked,
			"refresh token reuse detected, all sessions in this family were revoked",
			http.StatusUnauthorized,
			"TOKEN_REUSE_DETECTED",
		))
	case errors.Is(err, ErrUserExists):
		core.JSONError(w, core.DuplicateError("email or username"))
	default:
		core.WriteError(w, err)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req, clientOf(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req, clientOf(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, clientOf(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.OK(w, resp)
}

// Logout accepts an optional body naming the refresh token to end.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength != 0 {
		if err := core.DecodeAndValidate(w, r, &req); err != nil {
			core.JSONError(w, err)
			return
		}
	}

	ctx := r.Context()
	if err := h.service.Logout(ctx, req.RefreshToken, middleware.GetClaims(ctx)); err != nil {
		writeAuthError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.LogoutAll(ctx, middleware.GetUserID(ctx)); err != nil {
		writeAuthError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := h.service.GetActiveSessions(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.RevokeSession(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := core.DecodeAndValidate(w, r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	ctx := r.Context()
	err := h.service.ChangePassword(ctx, middleware.GetUserID(ctx), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetCurrentUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.OK(w, user)
}
