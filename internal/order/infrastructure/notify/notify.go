package notify

import (
	"context"
	"log/slog"
)

// OrderPlacedNote is the customer-facing confirmation for a new checkout.
type OrderPlacedNote struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	TotalAmount   float64
	Fulfillment   string
}

// StatusChangedNote tells the customer their order moved to a new status.
type StatusChangedNote struct {
	OrderID       string
	Status        string
	Reason        string
	CustomerName  string
	CustomerEmail string
}

type Sender interface {
	OrderPlaced(ctx context.Context, n OrderPlacedNote) error
	StatusChanged(ctx context.Context, n StatusChangedNote) error
}

// LogSender writes notifications to the structured log. It stands in for a
// mail or SMS gateway; swapping it out only touches the wiring in main.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) OrderPlaced(ctx context.Context, n OrderPlacedNote) error {
	s.log.Info("notify: order placed",
		"order_id", n.OrderID, "email", n.CustomerEmail, "total", n.TotalAmount, "fulfillment", n.Fulfillment)
	return nil
}

func (s *LogSender) StatusChanged(ctx context.Context, n StatusChangedNote) error {
	s.log.Info("notify: order status changed",
		"order_id", n.OrderID, "email", n.CustomerEmail, "status", n.Status, "reason", n.Reason)
	return nil
}
