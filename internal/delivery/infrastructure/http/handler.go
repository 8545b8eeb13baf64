package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/delivery/application"
	"github.com/ozkantan/lokma/internal/delivery/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("delivery-http")}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/delivery/eligibility", h.checkEligibility)
	r.Get("/delivery/rule-groups", h.groupSummaries)
	r.Get("/vendor/delivery-rules", h.listRules)
	r.Put("/vendor/delivery-rules", h.saveRule)
	r.Delete("/vendor/delivery-rules/{id}", h.deleteRule)
	r.Delete("/vendor/delivery-rule-groups/{id}", h.deleteGroup)
}

type eligibilityReq struct {
	VendorID string             `json:"vendorId"`
	Items    []catalog.CartLine `json:"items"`
}

func (h *Handler) checkEligibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CheckEligibility")
	defer span.End()

	var req eligibilityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	eligible, traces, err := h.service.CheckEligibility(ctx, req.VendorID, req.Items)
	if err != nil {
		h.log.Error("eligibility check failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"eligible": eligible,
		"groups":   traces,
	})
}

func (h *Handler) groupSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RuleGroupSummaries")
	defer span.End()

	summaries, err := h.service.RuleSummaries(ctx, r.URL.Query().Get("vendorId"))
	if err != nil {
		h.log.Error("rule summaries failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListDeliveryRules")
	defer span.End()

	rules, err := h.service.ListRules(ctx, r.URL.Query().Get("vendorId"))
	if err != nil {
		h.log.Error("list rules failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) saveRule(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SaveDeliveryRule")
	defer span.End()

	var rule domain.DeliveryRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.service.SaveRule(ctx, rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteDeliveryRule")
	defer span.End()

	if err := h.service.DeleteRule(ctx, chi.URLParam(r, "id")); err != nil {
		h.log.Error("delete rule failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteDeliveryRuleGroup")
	defer span.End()

	if err := h.service.DeleteGroup(ctx, chi.URLParam(r, "id")); err != nil {
		h.log.Error("delete rule group failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
