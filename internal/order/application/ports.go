package application

import (
	"context"
	"io"

	customer "github.com/ozkantan/lokma/internal/customer/domain"
	"github.com/ozkantan/lokma/internal/order/domain"
)

type OrderRepository interface {
	// Create persists the order, its line items and the matching outbox event
	// in one transaction.
	Create(ctx context.Context, o domain.RawOrder) error
	Get(ctx context.Context, id string) (domain.RawOrder, error)
	ListAll(ctx context.Context) ([]domain.RawOrder, error)
	ListByCustomer(ctx context.Context, customerKey string) ([]domain.RawOrder, error)
	ListSummariesByCustomer(ctx context.Context, customerKey string) ([]domain.OrderSummary, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, reason string) error
}

type CustomerRepository interface {
	Upsert(ctx context.Context, c customer.Customer) (customer.Customer, error)
}

// ProofStorage stores the opaque payment-proof artifact and returns a stable
// reference path.
type ProofStorage interface {
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
}

type StockClient interface {
	Decrement(ctx context.Context, itemID string, qty int) error
}

// SlotBooker records a delivery time booking for a created order.
type SlotBooker interface {
	ReserveSlot(ctx context.Context, categoryID, date, slot string) error
}

// ChangePublisher invalidates derived views after a write.
type ChangePublisher interface {
	Publish(table string)
}
