// Package handler exposes the lending API. Routes follow the original
// surface: copies live under /book_instances, and return/disable/record are
// GET actions on an instance.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/lending/models"
	"libris/internal/platform/middleware"
	"libris/internal/policy"
	"libris/internal/transport/http/shared"
	"libris/pkg/requestcontext"
)

// Service defines the lending operations the handler delegates to.
type Service interface {
	RegisterCopy(ctx context.Context, bookID int64) (*models.CopyDetail, error)
	Borrow(ctx context.Context, copyID int64, borrowerID uuid.UUID, req *models.BorrowRequest) (*models.CopyDetail, error)
	Return(ctx context.Context, copyID int64, borrowerID uuid.UUID) (*models.CopyDetail, error)
	Disable(ctx context.Context, copyID int64) (*models.CopyDetail, error)
	GetCopy(ctx context.Context, copyID int64) (*models.CopyDetail, error)
	ListCopies(ctx context.Context) ([]models.BookCopy, error)
	GetHistory(ctx context.Context, copyID int64) (*models.CopyHistory, error)
}

type Handler struct {
	lending Service
	logger  *slog.Logger
}

func New(lending Service, logger *slog.Logger) *Handler {
	return &Handler{lending: lending, logger: logger}
}

// Register mounts the lending routes. Authentication has already run; each
// route adds its own role gate from the policy table.
func (h *Handler) Register(r chi.Router) {
	r.Route("/book_instances", func(r chi.Router) {
		r.With(middleware.RequireRole(policy.OpListCopies, h.logger)).
			Get("/", h.handleListCopies)
		r.With(middleware.RequireRole(policy.OpRegisterCopy, h.logger)).
			Post("/", h.handleRegisterCopy)

		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireRole(policy.OpGetCopy, h.logger)).
				Get("/", h.handleGetCopy)

			// Copies change state only through the lending actions.
			r.Put("/", shared.MethodNotAllowed)
			r.Patch("/", shared.MethodNotAllowed)
			r.Delete("/", shared.MethodNotAllowed)

			r.With(middleware.RequireRole(policy.OpBorrow, h.logger)).
				Post("/borrow", h.handleBorrow)
			r.With(middleware.RequireRole(policy.OpReturn, h.logger)).
				Get("/return_book", h.handleReturn)
			r.With(middleware.RequireRole(policy.OpDisable, h.logger)).
				Get("/disable", h.handleDisable)
			r.With(middleware.RequireRole(policy.OpGetHistory, h.logger)).
				Get("/record", h.handleHistory)
		})
	})
}

func (h *Handler) handleRegisterCopy(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterCopyRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.lending.RegisterCopy(r.Context(), req.BookID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, detail)
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	copyID, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.BorrowRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.lending.Borrow(r.Context(), copyID, requestcontext.MemberID(r.Context()), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	copyID, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.lending.Return(r.Context(), copyID, requestcontext.MemberID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleDisable(w http.ResponseWriter, r *http.Request) {
	copyID, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.lending.Disable(r.Context(), copyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleGetCopy(w http.ResponseWriter, r *http.Request) {
	copyID, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.lending.GetCopy(r.Context(), copyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListCopies(w http.ResponseWriter, r *http.Request) {
	copies, err := h.lending.ListCopies(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if copies == nil {
		copies = []models.BookCopy{}
	}
	shared.WriteJSON(w, http.StatusOK, copies)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	copyID, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	history, err := h.lending.GetHistory(r.Context(), copyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if history.Records == nil {
		history.Records = []models.BorrowRecord{}
	}
	shared.WriteJSON(w, http.StatusOK, history)
}
