package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	catalogpg "github.com/ozkantan/lokma/internal/catalog/infrastructure/postgres"
	"github.com/ozkantan/lokma/internal/fulfillment/application"
	"github.com/ozkantan/lokma/internal/fulfillment/domain"
)

const dateLayout = "2006-01-02"

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("fulfillment-http")}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/categories/{id}/slots", h.bookableSlots)
	r.Post("/pickup/unify", h.unifyPickup)
	r.Get("/vendor/categories/{id}/slot-grid", h.slotGrid)
	r.Put("/vendor/categories/{id}/slot-config", h.saveSlotConfig)
}

func (h *Handler) bookableSlots(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "BookableSlots")
	defer span.End()

	date, ok := parseDate(w, r)
	if !ok {
		return
	}
	slots, err := h.service.BookableSlots(ctx, chi.URLParam(r, "id"), date)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) slotGrid(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SlotGrid")
	defer span.End()

	date, ok := parseDate(w, r)
	if !ok {
		return
	}
	grid, err := h.service.Grid(ctx, chi.URLParam(r, "id"), date)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": grid})
}

type slotConfigReq struct {
	Weekday int      `json:"weekday"`
	Slots   []string `json:"slots"`
}

func (h *Handler) saveSlotConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SaveSlotConfig")
	defer span.End()

	var req slotConfigReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "weekday must be 0-6", http.StatusBadRequest)
		return
	}
	if err := h.service.SaveActivatedSlots(ctx, chi.URLParam(r, "id"), time.Weekday(req.Weekday), req.Slots); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unifyReq struct {
	CategoryIDs []string                           `json:"categoryIds"`
	Overrides   map[string]catalog.FulfillmentType `json:"overrides,omitempty"`
}

func (h *Handler) unifyPickup(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UnifyPickup")
	defer span.End()

	var req unifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ids := make(map[string]struct{}, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		ids[id] = struct{}{}
	}

	result, locations, err := h.service.UnifyPickup(ctx, ids, req.Overrides)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unification": result,
		"locations":   locations,
	})
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogpg.ErrCategoryNotFound):
		http.Error(w, "category not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNoSlotsConfigured), errors.Is(err, domain.ErrDayNotAvailable):
		writeJSON(w, http.StatusOK, map[string]any{"slots": []any{}, "error": err.Error()})
	default:
		h.log.Error("fulfillment request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
