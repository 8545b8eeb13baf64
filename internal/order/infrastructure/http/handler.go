package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/order/application"
	"github.com/ozkantan/lokma/internal/order/domain"
)

const maxCheckoutBytes = 10 << 20 // payment proof images

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("order-http")}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.customerOrders)
	r.Get("/orders/history", h.customerHistory)
	r.Get("/vendor/orders", h.vendorOrders)
	r.Patch("/vendor/orders/{id}/status", h.updateStatus)
}

// checkoutPayload is the JSON part of the multipart checkout request. The
// payment proof rides alongside as the "payment_proof" file part.
type checkoutPayload struct {
	Items          []catalog.CartLine                          `json:"items"`
	Customer       application.CustomerInfo                    `json:"customer"`
	Notes          string                                      `json:"notes"`
	TaxAmount      float64                                     `json:"taxAmount"`
	DiscountAmount float64                                     `json:"discountAmount"`
	Selections     map[string]application.FulfillmentSelection `json:"fulfillmentSelections"`
}

type checkoutResponse struct {
	OrderID    string            `json:"orderId"`
	CreatedIDs []string          `json:"createdOrderIds"`
	Failed     map[string]string `json:"failedCategories,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	if err := r.ParseMultipartForm(maxCheckoutBytes); err != nil {
		http.Error(w, "malformed multipart request", http.StatusBadRequest)
		return
	}

	var payload checkoutPayload
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	req := application.SubmitRequest{
		Lines:          payload.Items,
		Customer:       payload.Customer,
		Notes:          payload.Notes,
		TaxAmount:      payload.TaxAmount,
		DiscountAmount: payload.DiscountAmount,
		Selections:     payload.Selections,
	}

	if file, header, err := r.FormFile("payment_proof"); err == nil {
		defer file.Close()
		req.Proof = file
		req.ProofFilename = header.Filename
	}

	result, err := h.service.Submit(ctx, req)
	if err != nil {
		h.writeSubmitError(w, result, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: result.OrderID, CreatedIDs: result.CreatedIDs})
}

// writeSubmitError maps the submission error taxonomy onto HTTP. Partial
// success is reported as 202 so the client can show what did go through.
func (h *Handler) writeSubmitError(w http.ResponseWriter, result application.SubmitResult, err error) {
	var (
		ve *application.ValidationError
		pe *application.PartialSubmissionError
		ce *application.CollaboratorError
	)
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, application.ErrNoValidOrders):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &pe):
		failed := make(map[string]string, len(pe.Failed))
		for category, ferr := range pe.Failed {
			failed[category] = ferr.Error()
		}
		writeJSON(w, http.StatusAccepted, checkoutResponse{
			OrderID:    result.OrderID,
			CreatedIDs: result.CreatedIDs,
			Failed:     failed,
		})
	case errors.As(err, &ce):
		h.log.Error("checkout collaborator failed", "step", ce.Step, "err", ce.Err)
		http.Error(w, "checkout failed at "+ce.Step, http.StatusBadGateway)
	default:
		h.log.Error("checkout failed", "err", err)
		http.Error(w, "checkout failed", http.StatusInternalServerError)
	}
}

func (h *Handler) customerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CustomerOrders")
	defer span.End()

	key := customerKeyParam(r)
	if key == "" {
		http.Error(w, "email or customer id required", http.StatusBadRequest)
		return
	}
	unified, err := h.service.CustomerOrders(ctx, key)
	if err != nil {
		h.log.Error("customer orders failed", "err", err)
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, unified)
}

func (h *Handler) customerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CustomerHistory")
	defer span.End()

	key := customerKeyParam(r)
	if key == "" {
		http.Error(w, "email or customer id required", http.StatusBadRequest)
		return
	}
	unified, err := h.service.CustomerHistory(ctx, key)
	if err != nil {
		h.log.Error("customer history failed", "err", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, unified)
}

func (h *Handler) vendorOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VendorOrders")
	defer span.End()

	unified, err := h.service.VendorOrders(ctx)
	if err != nil {
		h.log.Error("vendor orders failed", "err", err)
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, unified)
}

type statusUpdate struct {
	Status domain.OrderStatus `json:"status"`
	Reason string             `json:"reason,omitempty"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	var update statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	err := h.service.UpdateStatus(ctx, chi.URLParam(r, "id"), update.Status, update.Reason)
	if err != nil {
		var ve *application.ValidationError
		var nf *application.NotFoundError
		switch {
		case errors.As(err, &ve):
			http.Error(w, ve.Error(), http.StatusBadRequest)
		case errors.As(err, &nf):
			http.Error(w, nf.Error(), http.StatusNotFound)
		default:
			h.log.Error("status update failed", "err", err)
			http.Error(w, "status update failed", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func customerKeyParam(r *http.Request) string {
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		return email
	}
	return strings.TrimSpace(r.URL.Query().Get("customerId"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
