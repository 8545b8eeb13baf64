package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	customer "github.com/ozkantan/lokma/internal/customer/domain"
	"github.com/ozkantan/lokma/internal/order/domain"
	"github.com/ozkantan/lokma/pkg/logging"
)

type fakeOrders struct {
	mu      sync.Mutex
	created []domain.RawOrder
	failFor map[string]error // category id of first item -> error
}

func (f *fakeOrders) Create(ctx context.Context, o domain.RawOrder) error {
	if len(o.Items) > 0 {
		if err, ok := f.failFor[o.Items[0].CategoryID]; ok {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrders) Get(ctx context.Context, id string) (domain.RawOrder, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.RawOrder{}, &NotFoundError{Kind: "order", ID: id}
}

func (f *fakeOrders) ListAll(ctx context.Context) ([]domain.RawOrder, error) {
	return f.created, nil
}

func (f *fakeOrders) ListByCustomer(ctx context.Context, key string) ([]domain.RawOrder, error) {
	return f.created, nil
}

func (f *fakeOrders) ListSummariesByCustomer(ctx context.Context, key string) ([]domain.OrderSummary, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, reason string) error {
	return nil
}

type fakeCustomers struct {
	upserted *customer.Customer
	err      error
}

func (f *fakeCustomers) Upsert(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if f.err != nil {
		return customer.Customer{}, f.err
	}
	c.ID = "cust-1"
	f.upserted = &c
	return c, nil
}

type fakeProofs struct {
	err    error
	stored string
}

func (f *fakeProofs) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = "proofs/" + filename
	return f.stored, nil
}

type fakeStock struct {
	mu         sync.Mutex
	decrements map[string]int
	err        error
}

func (f *fakeStock) Decrement(ctx context.Context, itemID string, qty int) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decrements == nil {
		f.decrements = map[string]int{}
	}
	f.decrements[itemID] += qty
	return nil
}

type fakeSlots struct {
	mu       sync.Mutex
	reserved []string
}

func (f *fakeSlots) ReserveSlot(ctx context.Context, categoryID, date, slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserved = append(f.reserved, fmt.Sprintf("%s/%s/%s", categoryID, date, slot))
	return nil
}

type env struct {
	orders    *fakeOrders
	customers *fakeCustomers
	proofs    *fakeProofs
	stock     *fakeStock
	slots     *fakeSlots
	service   *Service
}

func newEnv() *env {
	e := &env{
		orders:    &fakeOrders{},
		customers: &fakeCustomers{},
		proofs:    &fakeProofs{},
		stock:     &fakeStock{},
		slots:     &fakeSlots{},
	}
	e.service = NewService(logging.Discard(), e.orders, e.customers, e.proofs, e.stock, e.slots, nil)
	return e
}

var (
	breadItem  = uuid.NewString()
	pastryItem = uuid.NewString()
)

func validRequest() SubmitRequest {
	return SubmitRequest{
		Lines: []catalog.CartLine{
			{ItemID: breadItem, CategoryID: "breads", Quantity: 2, UnitPrice: 30},
			{ItemID: pastryItem, CategoryID: "pastries", Quantity: 1, UnitPrice: 40},
		},
		Customer: CustomerInfo{
			Name:  "Ayse Yilmaz",
			Email: "ayse@example.com",
		},
		TaxAmount:     10,
		ProofFilename: "receipt.jpg",
		Proof:         strings.NewReader("binary"),
		Selections: map[string]FulfillmentSelection{
			"breads":   {Fulfillment: catalog.FulfillmentDelivery, Date: "2025-09-04", DeliverySlot: "10:00", DeliveryAddress: "Kadikoy"},
			"pastries": {Fulfillment: catalog.FulfillmentPickup, PickupTime: "12:00", PickupLocation: "market"},
		},
	}
}

func TestSubmitCreatesOneOrderPerCategory(t *testing.T) {
	e := newEnv()
	result, err := e.service.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(e.orders.created) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(e.orders.created))
	}
	if len(result.CreatedIDs) != 2 {
		t.Fatalf("expected 2 created ids, got %v", result.CreatedIDs)
	}
	if result.OrderID == "" {
		t.Fatal("expected a representative order id")
	}

	for _, o := range e.orders.created {
		if o.Status != domain.StatusPending {
			t.Errorf("expected pending status, got %s", o.Status)
		}
		if o.PaymentProofRef != "proofs/receipt.jpg" {
			t.Errorf("expected proof reference on order, got %q", o.PaymentProofRef)
		}
		if o.CustomerID != "cust-1" {
			t.Errorf("expected upserted customer id, got %q", o.CustomerID)
		}
	}
}

func TestSubmitApportionsTaxByCategoryShare(t *testing.T) {
	e := newEnv()
	if _, err := e.service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Cart total 100, tax 10. Breads subtotal 60 -> 6 tax; pastries 40 -> 4.
	byCategory := map[string]domain.RawOrder{}
	for _, o := range e.orders.created {
		byCategory[o.Items[0].CategoryID] = o
	}
	if got := byCategory["breads"].TaxAmount; got != 6 {
		t.Errorf("breads tax share = %v, want 6", got)
	}
	if got := byCategory["pastries"].TaxAmount; got != 4 {
		t.Errorf("pastries tax share = %v, want 4", got)
	}
	if got := byCategory["breads"].TotalAmount; got != 66 {
		t.Errorf("breads total = %v, want 66", got)
	}
}

func TestSubmitRejectsMalformedItemID(t *testing.T) {
	e := newEnv()
	req := validRequest()
	req.Lines[0].ItemID = "not-a-uuid"

	_, err := e.service.Submit(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// Validation blocks every downstream effect.
	if e.customers.upserted != nil {
		t.Error("customer upsert must not run after validation failure")
	}
	if len(e.orders.created) != 0 {
		t.Error("no orders may be created after validation failure")
	}
}

func TestSubmitNamesFailedUploadStep(t *testing.T) {
	e := newEnv()
	e.proofs.err = errors.New("bucket unavailable")

	_, err := e.service.Submit(context.Background(), validRequest())
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if ce.Step != StepProofUpload {
		t.Fatalf("expected step %q, got %q", StepProofUpload, ce.Step)
	}
	// The customer record created before the failure stays; no rollback.
	if e.customers.upserted == nil {
		t.Error("expected customer upsert to have run before the upload failure")
	}
	if len(e.orders.created) != 0 {
		t.Error("no orders may be created after an aborted upload")
	}
}

func TestSubmitSkipsSelectionsAbsentFromCart(t *testing.T) {
	e := newEnv()
	req := validRequest()
	req.Selections["drinks"] = FulfillmentSelection{Fulfillment: catalog.FulfillmentDelivery, Date: "2025-09-04"}

	result, err := e.service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(result.CreatedIDs) != 2 {
		t.Fatalf("expected the absent category to be a no-op, got %d orders", len(result.CreatedIDs))
	}
}

func TestSubmitFailsWhenNothingCreated(t *testing.T) {
	e := newEnv()
	req := validRequest()
	req.Selections = map[string]FulfillmentSelection{
		"drinks": {Fulfillment: catalog.FulfillmentDelivery, Date: "2025-09-04"},
	}

	_, err := e.service.Submit(context.Background(), req)
	if !errors.Is(err, ErrNoValidOrders) {
		t.Fatalf("expected ErrNoValidOrders, got %v", err)
	}
}

func TestSubmitPartialSuccess(t *testing.T) {
	e := newEnv()
	e.orders.failFor = map[string]error{"pastries": errors.New("insert failed")}

	result, err := e.service.Submit(context.Background(), validRequest())
	var pe *PartialSubmissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PartialSubmissionError, got %v", err)
	}
	if len(pe.CreatedIDs) != 1 {
		t.Fatalf("expected 1 created order in partial error, got %v", pe.CreatedIDs)
	}
	if _, ok := pe.Failed["pastries"]; !ok {
		t.Fatalf("expected pastries in failed set, got %v", pe.Failed)
	}
	// The successful subset is usable.
	if result.OrderID == "" || len(result.CreatedIDs) != 1 {
		t.Fatalf("expected usable partial result, got %+v", result)
	}
}

func TestSubmitTotalCreationFailure(t *testing.T) {
	e := newEnv()
	boom := errors.New("db down")
	e.orders.failFor = map[string]error{"breads": boom, "pastries": boom}

	_, err := e.service.Submit(context.Background(), validRequest())
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if ce.Step != StepOrderCreate {
		t.Fatalf("expected step %q, got %q", StepOrderCreate, ce.Step)
	}
}

func TestSubmitDecrementsStockBestEffort(t *testing.T) {
	e := newEnv()
	if _, err := e.service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if e.stock.decrements[breadItem] != 2 || e.stock.decrements[pastryItem] != 1 {
		t.Fatalf("unexpected decrements: %v", e.stock.decrements)
	}

	// A decrement failure must not fail the submission.
	e2 := newEnv()
	e2.stock.err = errors.New("stock service down")
	if _, err := e2.service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("stock failure must be best-effort, got %v", err)
	}
	if len(e2.orders.created) != 2 {
		t.Fatal("orders must survive a stock decrement failure")
	}
}

func TestSubmitReservesDeliverySlot(t *testing.T) {
	e := newEnv()
	if _, err := e.service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(e.slots.reserved) != 1 {
		t.Fatalf("expected one slot reservation (delivery category only), got %v", e.slots.reserved)
	}
	if e.slots.reserved[0] != "breads/2025-09-04/10:00" {
		t.Fatalf("unexpected reservation %q", e.slots.reserved[0])
	}
}

func TestSubmitSharesOneTimestampAcrossCategories(t *testing.T) {
	// All sub-orders of one checkout must land in the same grouping window.
	e := newEnv()
	if _, err := e.service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	first := e.orders.created[0].CreatedAt
	for _, o := range e.orders.created {
		if !o.CreatedAt.Equal(first) {
			t.Fatalf("timestamps differ: %v vs %v", first, o.CreatedAt)
		}
	}

	unified := domain.UnifyOrders(e.orders.created, nil)
	if len(unified) != 1 {
		t.Fatalf("expected one unified checkout, got %d", len(unified))
	}
}

func TestUpdateStatusValidatesAndDropsStaleReason(t *testing.T) {
	e := newEnv()
	if err := e.service.UpdateStatus(context.Background(), "o1", "shipped", ""); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
	if err := e.service.UpdateStatus(context.Background(), "o1", domain.StatusConfirmed, "stale reason"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
