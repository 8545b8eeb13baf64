package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/catalog/infrastructure/postgres"
)

type Reader interface {
	ListCategories(ctx context.Context) ([]domain.MenuCategory, error)
	ListItems(ctx context.Context, categoryID string) ([]domain.MenuItem, error)
}

type Handler struct {
	log    *slog.Logger
	repo   Reader
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, repo Reader) *Handler {
	return &Handler{log: log, repo: repo, tracer: otel.Tracer("catalog-http")}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}/items", h.listItems)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCategories")
	defer span.End()

	categories, err := h.repo.ListCategories(ctx)
	if err != nil {
		h.log.Error("list categories failed", "err", err)
		http.Error(w, "failed to load menu", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListItems")
	defer span.End()

	items, err := h.repo.ListItems(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, postgres.ErrCategoryNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		h.log.Error("list items failed", "err", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
