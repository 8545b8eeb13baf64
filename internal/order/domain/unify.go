package domain

import (
	"fmt"
	"sort"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

// GroupingWindow is the time window inside which sub-orders of one customer
// are assumed to belong to the same checkout.
const GroupingWindow = 5 * time.Minute

// Correlator decides which checkout a sub-order belongs to. The time-window
// heuristic is the only strategy the persisted data supports today; a future
// schema with an explicit checkout id can replace it without touching call
// sites.
type Correlator interface {
	Key(customerKey string, createdAt time.Time) string
}

// TimeWindowCorrelator buckets creation timestamps into fixed windows.
// Orders straddling a window boundary split into separate groups; that is a
// known limitation of the heuristic, not something to paper over here.
type TimeWindowCorrelator struct {
	Window time.Duration
}

func (c TimeWindowCorrelator) Key(customerKey string, createdAt time.Time) string {
	w := c.Window
	if w <= 0 {
		w = GroupingWindow
	}
	bucket := createdAt.UnixMilli() / w.Milliseconds()
	return fmt.Sprintf("%s@%d", customerKey, bucket)
}

// DisplayItem is an order line shaped for rendering.
type DisplayItem struct {
	ID          string                `json:"id"`
	Name        catalog.LocalizedText `json:"name"`
	Quantity    int                   `json:"quantity"`
	UnitPrice   float64               `json:"unitPrice"`
	DiscountPct float64               `json:"discountPct,omitempty"`
}

// CategoryDetail is the per-category fulfillment block of a unified order,
// one per underlying RawOrder.
type CategoryDetail struct {
	OrderID         string                  `json:"orderId"`
	CategoryID      string                  `json:"categoryId"`
	Fulfillment     catalog.FulfillmentType `json:"fulfillmentType"`
	Status          OrderStatus             `json:"status"`
	RejectionReason string                  `json:"rejectionReason,omitempty"`
	DeliveryDate    string                  `json:"deliveryDate,omitempty"`
	DeliveryAddress string                  `json:"deliveryAddress,omitempty"`
	DeliverySlot    string                  `json:"deliverySlot,omitempty"`
	PickupTime      string                  `json:"pickupTime,omitempty"`
	PickupLocation  string                  `json:"pickupLocation,omitempty"`
	Subtotal        float64                 `json:"subtotal"`
	TaxAmount       float64                 `json:"taxAmount"`
	Items           []DisplayItem           `json:"items,omitempty"`
}

// UnifiedOrder is the derived view of one logical checkout. Never persisted;
// recomputed from the RawOrder set on every read.
type UnifiedOrder struct {
	ID string `json:"id"`

	CustomerID    string `json:"customerId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`

	TotalAmount    float64 `json:"totalAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxAmount      float64 `json:"taxAmount"`

	OverallStatus   OrderStatus `json:"overallStatus"`
	Notes           string      `json:"notes,omitempty"`
	PaymentProofRef string      `json:"paymentProofRef,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`

	Categories      []CategoryDetail `json:"categories"`
	RelatedOrderIDs []string         `json:"relatedOrderIds"`
}

// OverallStatus aggregates member statuses by priority: any rejection
// dominates, then any pending, then any confirmed, else completed.
func OverallStatus(statuses []OrderStatus) OrderStatus {
	var hasPending, hasConfirmed bool
	for _, s := range statuses {
		switch s {
		case StatusRejected:
			return StatusRejected
		case StatusPending:
			hasPending = true
		case StatusConfirmed:
			hasConfirmed = true
		}
	}
	if hasPending {
		return StatusPending
	}
	if hasConfirmed {
		return StatusConfirmed
	}
	return StatusCompleted
}

// UnifyOrders groups raw sub-orders into logical checkouts. Pure and stable:
// the grouping and sums do not depend on input order; only the earliest
// member (by timestamp, id as tie-break) supplies identity fields.
func UnifyOrders(orders []RawOrder, corr Correlator) []UnifiedOrder {
	if corr == nil {
		corr = TimeWindowCorrelator{}
	}

	groups := map[string][]RawOrder{}
	for _, o := range orders {
		key := corr.Key(o.CustomerKey(), o.CreatedAt)
		groups[key] = append(groups[key], o)
	}

	out := make([]UnifiedOrder, 0, len(groups))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].CreatedAt.Before(members[j].CreatedAt)
			}
			return members[i].ID < members[j].ID
		})
		main := members[0]

		unified := UnifiedOrder{
			ID:              main.ID,
			CustomerID:      main.CustomerID,
			CustomerName:    main.CustomerName,
			CustomerEmail:   main.CustomerEmail,
			CustomerPhone:   main.CustomerPhone,
			Notes:           main.Notes,
			PaymentProofRef: main.PaymentProofRef,
			CreatedAt:       main.CreatedAt,
		}

		statuses := make([]OrderStatus, 0, len(members))
		for _, m := range members {
			unified.TotalAmount += m.TotalAmount
			unified.DiscountAmount += m.DiscountAmount
			unified.TaxAmount += m.TaxAmount
			statuses = append(statuses, m.Status)
			unified.Categories = append(unified.Categories, categoryDetail(m))
			unified.RelatedOrderIDs = append(unified.RelatedOrderIDs, m.ID)
		}
		unified.OverallStatus = OverallStatus(statuses)
		out = append(out, unified)
	}

	sortUnified(out)
	return out
}

// UnifyHistory applies the same grouping and status aggregation to the light
// order-history shape. Fields the shape lacks stay empty.
func UnifyHistory(summaries []OrderSummary, corr Correlator) []UnifiedOrder {
	if corr == nil {
		corr = TimeWindowCorrelator{}
	}

	groups := map[string][]OrderSummary{}
	for _, s := range summaries {
		key := corr.Key(s.CustomerKey(), s.CreatedAt)
		groups[key] = append(groups[key], s)
	}

	out := make([]UnifiedOrder, 0, len(groups))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].CreatedAt.Before(members[j].CreatedAt)
			}
			return members[i].ID < members[j].ID
		})
		main := members[0]

		unified := UnifiedOrder{
			ID:            main.ID,
			CustomerID:    main.CustomerID,
			CustomerEmail: main.CustomerEmail,
			CreatedAt:     main.CreatedAt,
		}
		statuses := make([]OrderStatus, 0, len(members))
		for _, m := range members {
			unified.TotalAmount += m.TotalAmount
			unified.DiscountAmount += m.DiscountAmount
			statuses = append(statuses, m.Status)
			unified.Categories = append(unified.Categories, CategoryDetail{
				OrderID:     m.ID,
				CategoryID:  m.ID, // no line items in this shape to derive from
				Fulfillment: defaultFulfillment(m.Fulfillment),
				Status:      m.Status,
				Subtotal:    m.TotalAmount,
			})
			unified.RelatedOrderIDs = append(unified.RelatedOrderIDs, m.ID)
		}
		unified.OverallStatus = OverallStatus(statuses)
		out = append(out, unified)
	}

	sortUnified(out)
	return out
}

func categoryDetail(o RawOrder) CategoryDetail {
	// Category identity comes from the first line item; an item-less
	// sub-order degrades to its own id rather than failing.
	categoryID := o.ID
	if len(o.Items) > 0 && o.Items[0].CategoryID != "" {
		categoryID = o.Items[0].CategoryID
	}

	detail := CategoryDetail{
		OrderID:         o.ID,
		CategoryID:      categoryID,
		Fulfillment:     defaultFulfillment(o.Fulfillment),
		Status:          o.Status,
		RejectionReason: o.RejectionReason,
		DeliveryDate:    o.DeliveryDate,
		DeliveryAddress: o.DeliveryAddress,
		DeliverySlot:    o.DeliverySlot,
		PickupTime:      o.PickupTime,
		PickupLocation:  o.PickupLocation,
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
	}
	for _, it := range o.Items {
		detail.Items = append(detail.Items, DisplayItem{
			ID:          it.ItemID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			DiscountPct: it.DiscountPct,
		})
	}
	return detail
}

func defaultFulfillment(ft catalog.FulfillmentType) catalog.FulfillmentType {
	if ft == "" {
		return catalog.FulfillmentDelivery
	}
	return ft
}

// Newest checkout first; id as tie-break keeps the output deterministic.
func sortUnified(orders []UnifiedOrder) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}
