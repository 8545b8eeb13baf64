package domain

import (
	"strings"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
)

func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// OrderLine is one persisted line item of a sub-order.
type OrderLine struct {
	ItemID      string                `json:"itemId"`
	CategoryID  string                `json:"categoryId"`
	Name        catalog.LocalizedText `json:"name"`
	Quantity    int                   `json:"quantity"`
	UnitPrice   float64               `json:"unitPrice"`
	DiscountPct float64               `json:"discountPct,omitempty"`
}

// RawOrder is one persisted category-scoped sub-order. A single checkout
// creates one RawOrder per category; the unifier reassembles them.
type RawOrder struct {
	ID string `json:"id"`

	CustomerID    string `json:"customerId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`

	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"taxAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	TotalAmount    float64 `json:"totalAmount"`

	Fulfillment     catalog.FulfillmentType `json:"fulfillmentType"`
	DeliveryDate    string                  `json:"deliveryDate,omitempty"` // YYYY-MM-DD
	DeliveryAddress string                  `json:"deliveryAddress,omitempty"`
	DeliverySlot    string                  `json:"deliverySlot,omitempty"` // HH:MM
	PickupTime      string                  `json:"pickupTime,omitempty"`
	PickupLocation  string                  `json:"pickupLocation,omitempty"`

	Status          OrderStatus `json:"status"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	PaymentProofRef string      `json:"paymentProofRef,omitempty"`

	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderLine `json:"items"`
}

// CustomerKey identifies the customer for grouping: id when authenticated,
// lowercased email otherwise.
func (o RawOrder) CustomerKey() string {
	if o.CustomerID != "" {
		return o.CustomerID
	}
	return strings.ToLower(o.CustomerEmail)
}

// OrderSummary is the lighter shape used by the order-history read path: no
// line items, tax or notes.
type OrderSummary struct {
	ID             string                  `json:"id"`
	CustomerID     string                  `json:"customerId"`
	CustomerEmail  string                  `json:"customerEmail"`
	TotalAmount    float64                 `json:"totalAmount"`
	DiscountAmount float64                 `json:"discountAmount"`
	Fulfillment    catalog.FulfillmentType `json:"fulfillmentType"`
	Status         OrderStatus             `json:"status"`
	CreatedAt      time.Time               `json:"createdAt"`
}

func (s OrderSummary) CustomerKey() string {
	if s.CustomerID != "" {
		return s.CustomerID
	}
	return strings.ToLower(s.CustomerEmail)
}
