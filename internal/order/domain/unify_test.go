package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2025, 9, 1, hour, min, sec, 0, time.UTC)
}

func rawOrder(id, email string, createdAt time.Time, total float64, status OrderStatus) RawOrder {
	return RawOrder{
		ID:            id,
		CustomerEmail: email,
		TotalAmount:   total,
		Status:        status,
		CreatedAt:     createdAt,
	}
}

func TestUnifyGroupsOrdersWithinWindow(t *testing.T) {
	// Three sub-orders inside one five-minute window form one checkout.
	orders := []RawOrder{
		rawOrder("o1", "ayse@example.com", at(10, 0, 0), 100, StatusPending),
		rawOrder("o2", "ayse@example.com", at(10, 2, 30), 50, StatusPending),
		rawOrder("o3", "ayse@example.com", at(10, 4, 50), 25, StatusPending),
	}

	unified := UnifyOrders(orders, nil)
	require.Len(t, unified, 1)
	assert.Equal(t, "o1", unified[0].ID)
	assert.Len(t, unified[0].RelatedOrderIDs, 3)
	assert.Equal(t, 175.0, unified[0].TotalAmount)
}

func TestUnifySplitsAcrossWindowBoundary(t *testing.T) {
	orders := []RawOrder{
		rawOrder("o1", "ayse@example.com", at(10, 0, 0), 100, StatusPending),
		rawOrder("o2", "ayse@example.com", at(10, 6, 0), 50, StatusPending),
	}
	unified := UnifyOrders(orders, nil)
	assert.Len(t, unified, 2)
}

func TestUnifySeparatesCustomers(t *testing.T) {
	orders := []RawOrder{
		rawOrder("o1", "ayse@example.com", at(10, 0, 0), 100, StatusPending),
		rawOrder("o2", "mehmet@example.com", at(10, 0, 30), 50, StatusPending),
	}
	unified := UnifyOrders(orders, nil)
	assert.Len(t, unified, 2)
}

func TestUnifyPrefersCustomerIDOverEmail(t *testing.T) {
	a := rawOrder("o1", "shared@example.com", at(10, 0, 0), 10, StatusPending)
	a.CustomerID = "c1"
	b := rawOrder("o2", "shared@example.com", at(10, 0, 30), 20, StatusPending)
	b.CustomerID = "c2"

	unified := UnifyOrders([]RawOrder{a, b}, nil)
	assert.Len(t, unified, 2)
}

func TestUnifyIsOrderIndependent(t *testing.T) {
	orders := []RawOrder{
		rawOrder("o1", "a@example.com", at(9, 0, 0), 10, StatusPending),
		rawOrder("o2", "a@example.com", at(9, 1, 0), 20, StatusConfirmed),
		rawOrder("o3", "b@example.com", at(9, 0, 0), 30, StatusCompleted),
		rawOrder("o4", "a@example.com", at(9, 30, 0), 40, StatusPending),
	}

	baseline := UnifyOrders(orders, nil)
	for i := 0; i < 20; i++ {
		shuffled := append([]RawOrder(nil), orders...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, baseline, UnifyOrders(shuffled, nil))
	}
}

func TestUnifyIsIdempotent(t *testing.T) {
	orders := []RawOrder{
		rawOrder("o1", "a@example.com", at(9, 0, 0), 10, StatusPending),
		rawOrder("o2", "a@example.com", at(9, 1, 0), 20, StatusPending),
	}
	first := UnifyOrders(orders, nil)
	second := UnifyOrders(orders, nil)
	assert.Equal(t, first, second)
}

func TestUnifyMainRecordSuppliesIdentity(t *testing.T) {
	late := rawOrder("o9", "a@example.com", at(9, 2, 0), 10, StatusPending)
	early := rawOrder("o1", "a@example.com", at(9, 1, 0), 20, StatusPending)
	early.Notes = "ring the bell"
	early.PaymentProofRef = "proofs/abc.jpg"

	unified := UnifyOrders([]RawOrder{late, early}, nil)
	require.Len(t, unified, 1)
	assert.Equal(t, "o1", unified[0].ID)
	assert.Equal(t, "ring the bell", unified[0].Notes)
	assert.Equal(t, "proofs/abc.jpg", unified[0].PaymentProofRef)
}

func TestOverallStatusPriority(t *testing.T) {
	tests := []struct {
		name     string
		statuses []OrderStatus
		want     OrderStatus
	}{
		{"rejection dominates everything", []OrderStatus{StatusCompleted, StatusRejected, StatusConfirmed}, StatusRejected},
		{"pending beats confirmed", []OrderStatus{StatusConfirmed, StatusPending}, StatusPending},
		{"confirmed beats completed", []OrderStatus{StatusCompleted, StatusConfirmed}, StatusConfirmed},
		{"all completed", []OrderStatus{StatusCompleted, StatusCompleted}, StatusCompleted},
		{"single rejected", []OrderStatus{StatusRejected}, StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallStatus(tt.statuses))
		})
	}
}

func TestCategoryDetailDerivation(t *testing.T) {
	o := rawOrder("o1", "a@example.com", at(9, 0, 0), 42, StatusPending)
	o.Items = []OrderLine{{
		ItemID:     "item-1",
		CategoryID: "breads",
		Name:       catalog.LocalizedText{TR: "Ekmek", EN: "Bread"},
		Quantity:   2,
		UnitPrice:  21,
	}}

	unified := UnifyOrders([]RawOrder{o}, nil)
	require.Len(t, unified, 1)
	require.Len(t, unified[0].Categories, 1)

	detail := unified[0].Categories[0]
	assert.Equal(t, "breads", detail.CategoryID)
	// Fulfillment defaults to delivery when unspecified.
	assert.Equal(t, catalog.FulfillmentDelivery, detail.Fulfillment)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Bread", detail.Items[0].Name.EN)
}

func TestCategoryDetailFallsBackToOrderID(t *testing.T) {
	o := rawOrder("o1", "a@example.com", at(9, 0, 0), 42, StatusPending)
	unified := UnifyOrders([]RawOrder{o}, nil)
	require.Len(t, unified, 1)
	assert.Equal(t, "o1", unified[0].Categories[0].CategoryID)
}

func TestUnifyHistoryAppliesSameGrouping(t *testing.T) {
	summaries := []OrderSummary{
		{ID: "o1", CustomerEmail: "a@example.com", TotalAmount: 10, Status: StatusPending, CreatedAt: at(10, 0, 0)},
		{ID: "o2", CustomerEmail: "a@example.com", TotalAmount: 20, Status: StatusRejected, CreatedAt: at(10, 2, 0)},
		{ID: "o3", CustomerEmail: "a@example.com", TotalAmount: 30, Status: StatusPending, CreatedAt: at(10, 6, 30)},
	}

	unified := UnifyHistory(summaries, nil)
	require.Len(t, unified, 2)

	// Newest first.
	assert.Equal(t, "o3", unified[0].ID)
	assert.Equal(t, "o1", unified[1].ID)
	assert.Equal(t, StatusRejected, unified[1].OverallStatus)
	assert.Equal(t, 30.0, unified[1].TotalAmount)
	// Fields the light shape lacks stay empty.
	assert.Zero(t, unified[1].TaxAmount)
	assert.Empty(t, unified[1].Notes)
	assert.Empty(t, unified[1].Categories[0].Items)
}

func TestCustomCorrelatorWindow(t *testing.T) {
	orders := []RawOrder{
		rawOrder("o1", "a@example.com", at(10, 0, 0), 10, StatusPending),
		rawOrder("o2", "a@example.com", at(10, 6, 0), 20, StatusPending),
	}
	// A one-hour window groups what the default splits.
	wide := UnifyOrders(orders, TimeWindowCorrelator{Window: time.Hour})
	assert.Len(t, wide, 1)
}
