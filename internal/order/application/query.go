package application

import (
	"context"
	"strings"

	"github.com/ozkantan/lokma/internal/order/domain"
	"github.com/ozkantan/lokma/pkg/realtime"
)

// VendorOrders returns every checkout, unified, for the vendor dashboard.
func (s *Service) VendorOrders(ctx context.Context) ([]domain.UnifiedOrder, error) {
	raw, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.UnifyOrders(raw, s.correlator), nil
}

// CustomerOrders returns a customer's checkouts with full detail.
func (s *Service) CustomerOrders(ctx context.Context, customerKey string) ([]domain.UnifiedOrder, error) {
	raw, err := s.orders.ListByCustomer(ctx, normalizeKey(customerKey))
	if err != nil {
		return nil, err
	}
	return domain.UnifyOrders(raw, s.correlator), nil
}

/// CustomerHistory is the light variant: same grouping, fewer joined fields.
func (s *Service) CustomerHistory(ctx context.Context, customerKey string) ([]domain.UnifiedOrder, error) {
	summaries, err := s.orders.ListSummariesByCustomer(ctx, normalizeKey(customerKey))
	if err != nil {
		return nil, err
	}
	return domain.UnifyHistory(summaries, s.correlator), nil
}

// UpdateStatus transitions one sub-order. Outbound notification rides the
// outbox event the repository writes; its delivery is best-effort and never
// blocks the transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, reason string) error {
	if !domain.ValidStatus(status) {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	if status != domain.StatusRejected {
		reason = ""
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status, reason); err != nil {
		return err
	}
	if s.changes != nil {
		s.changes.Publish(realtime.TableOrders)
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
