// Package handler exposes the catalog API under /books.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"libris/internal/catalog/models"
	"libris/internal/platform/middleware"
	"libris/internal/policy"
	"libris/internal/transport/http/shared"
)

// Service defines the catalog operations the handler delegates to.
type Service interface {
	CreateBook(ctx context.Context, req *models.CreateBookRequest) (*models.BookDetail, error)
	GetBook(ctx context.Context, id int64) (*models.BookDetail, error)
	ListBooks(ctx context.Context) ([]models.Book, error)
	PatchBook(ctx context.Context, id int64, patch *models.BookPatch) (*models.Book, error)
}

type Handler struct {
	catalog Service
	logger  *slog.Logger
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.With(middleware.RequireRole(policy.OpListBooks, h.logger)).
			Get("/", h.handleListBooks)
		r.With(middleware.RequireRole(policy.OpCreateBook, h.logger)).
			Post("/", h.handleCreateBook)

		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireRole(policy.OpGetBook, h.logger)).
				Get("/", h.handleGetBook)
			r.With(middleware.RequireRole(policy.OpPatchBook, h.logger)).
				Patch("/", h.handlePatchBook)

			// Titles with registered copies are never deleted.
			r.Delete("/", shared.MethodNotAllowed)
		})
	})
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.catalog.CreateBook(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, detail)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	detail, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if detail.Copies == nil {
		detail.Copies = []models.CopySummary{}
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	shared.WriteJSON(w, http.StatusOK, books)
}

func (h *Handler) handlePatchBook(w http.ResponseWriter, r *http.Request) {
	id, err := shared.URLParamID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var patch models.BookPatch
	if err := shared.DecodeAndValidate(r, &patch); err != nil {
		shared.WriteError(w, err)
		return
	}

	book, err := h.catalog.PatchBook(r.Context(), id, &patch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, book)
}
