// Package handler exposes member registration, login, and profile routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"libris/internal/member/models"
	"libris/internal/platform/middleware"
	"libris/internal/policy"
	"libris/internal/transport/http/shared"
)

// Service defines the member operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Profile, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Profile(ctx context.Context) (*models.Profile, error)
}

type Handler struct {
	members    Service
	logger     *slog.Logger
	loginGuard func(http.Handler) http.Handler
}

type Option func(h *Handler)

// WithLoginGuard wraps the login route with an extra middleware, typically a
// tight rate limit against credential stuffing.
func WithLoginGuard(guard func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.loginGuard = guard }
}

func New(members Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{members: members, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/members", func(r chi.Router) {
		r.With(middleware.RequireRole(policy.OpRegisterMember, h.logger)).
			Post("/", h.handleRegister)
		login := r.With(middleware.RequireRole(policy.OpLogin, h.logger))
		if h.loginGuard != nil {
			login = login.With(h.loginGuard)
		}
		login.Post("/login", h.handleLogin)
		r.With(middleware.RequireRole(policy.OpProfile, h.logger)).
			Get("/profile", h.handleProfile)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.members.Register(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.members.Login(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.members.Profile(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}
