package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	customer "github.com/ozkantan/lokma/internal/customer/domain"
	"github.com/ozkantan/lokma/internal/order/domain"
	"github.com/ozkantan/lokma/pkg/realtime"
	"github.com/ozkantan/lokma/pkg/saga"
)

var validate = validator.New()

// FulfillmentSelection is the customer's per-category fulfillment choice made
// at checkout.
type FulfillmentSelection struct {
	Fulfillment     catalog.FulfillmentType `json:"fulfillmentType"`
	Date            string                  `json:"date"` // YYYY-MM-DD
	DeliveryAddress string                  `json:"deliveryAddress,omitempty"`
	DeliverySlot    string                  `json:"deliverySlot,omitempty"`
	PickupTime      string                  `json:"pickupTime,omitempty"`
	PickupLocation  string                  `json:"pickupLocation,omitempty"`
}

type CustomerInfo struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	EmailOptIn bool   `json:"emailOptIn"`
	SMSOptIn   bool   `json:"smsOptIn"`
}

type SubmitRequest struct {
	Lines          []catalog.CartLine
	Customer       CustomerInfo
	Notes          string
	TaxAmount      float64
	DiscountAmount float64
	ProofFilename  string
	Proof          io.Reader

	// Selections drives order creation: one RawOrder per category key that is
	// also present in the cart.
	Selections map[string]FulfillmentSelection
}

// SubmitResult reports the representative order id plus everything that was
// actually created, for callers that need the full picture on partial success.
type SubmitResult struct {
	OrderID    string
	CreatedIDs []string
}

type Service struct {
	log        *slog.Logger
	orders     OrderRepository
	customers  CustomerRepository
	proofs     ProofStorage
	stock      StockClient
	slots      SlotBooker
	changes    ChangePublisher
	correlator domain.Correlator
	now        func() time.Time
}

func NewService(log *slog.Logger, orders OrderRepository, customers CustomerRepository,
	proofs ProofStorage, stock StockClient, slots SlotBooker, changes ChangePublisher) *Service {
	return &Service{
		log:        log,
		orders:     orders,
		customers:  customers,
		proofs:     proofs,
		stock:      stock,
		slots:      slots,
		changes:    changes,
		correlator: domain.TimeWindowCorrelator{},
		now:        time.Now,
	}
}

// Submit runs the checkout flow: validate, upsert customer, store the payment
// proof, create one pending order per selected category, then decrement stock
// best-effort. Steps are not rolled back on later failures; the returned
// error names the failed step. On partial order creation the result is valid
// AND the error is a *PartialSubmissionError.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	var (
		cust      customer.Customer
		proofRef  string
		created   []domain.RawOrder
		partial   *PartialSubmissionError
	)

	seq := saga.New(s.log, "order-submission",
		saga.Step{
			Name: StepValidate,
			Run: func(ctx context.Context) error {
				return s.validateRequest(req)
			},
		},
		saga.Step{
			Name: StepCustomerUpsert,
			Run: func(ctx context.Context) error {
				c, err := s.customers.Upsert(ctx, customer.Customer{
					Name:       req.Customer.Name,
					Email:      req.Customer.Email,
					Phone:      req.Customer.Phone,
					EmailOptIn: req.Customer.EmailOptIn,
					SMSOptIn:   req.Customer.SMSOptIn,
				})
				if err != nil {
					return &CollaboratorError{Step: StepCustomerUpsert, Err: err}
				}
				cust = c
				return nil
			},
			// An orphaned customer record with no order is acceptable debris.
			Compensate: func(ctx context.Context) error { return nil },
		},
		saga.Step{
			Name: StepProofUpload,
			Run: func(ctx context.Context) error {
				if req.Proof == nil {
					return nil
				}
				ref, err := s.proofs.Store(ctx, req.ProofFilename, req.Proof)
				if err != nil {
					return &CollaboratorError{Step: StepProofUpload, Err: err}
				}
				proofRef = ref
				return nil
			},
		},
		saga.Step{
			Name: StepOrderCreate,
			Run: func(ctx context.Context) error {
				var err error
				created, partial, err = s.createOrders(ctx, req, cust, proofRef)
				return err
			},
		},
		saga.Step{
			Name:       StepStockDecrement,
			BestEffort: true,
			Run: func(ctx context.Context) error {
				return s.decrementStock(ctx, created)
			},
		},
	)

	if err := seq.Run(ctx); err != nil {
		var se *saga.StepError
		if errors.As(err, &se) {
			return SubmitResult{}, se.Err
		}
		return SubmitResult{}, err
	}

	if s.changes != nil {
		s.changes.Publish(realtime.TableOrders)
		s.changes.Publish(realtime.TableOrderItems)
		s.changes.Publish(realtime.TableMenuItems)
	}

	result := SubmitResult{OrderID: created[0].ID}
	for _, o := range created {
		result.CreatedIDs = append(result.CreatedIDs, o.ID)
	}
	if partial != nil {
		return result, partial
	}
	return result, nil
}

func (s *Service) validateRequest(req SubmitRequest) error {
	if len(req.Lines) == 0 {
		return &ValidationError{Field: "items", Reason: "cart is empty"}
	}
	if err := validate.Struct(req.Customer); err != nil {
		return &ValidationError{Field: "customer", Reason: err.Error()}
	}
	for _, l := range req.Lines {
		if _, err := uuid.Parse(l.ItemID); err != nil {
			return &ValidationError{Field: "items", Reason: "malformed item id " + l.ItemID}
		}
		if l.Quantity < 1 {
			return &ValidationError{Field: "items", Reason: "quantity must be at least 1"}
		}
	}
	if len(req.Selections) == 0 {
		return &ValidationError{Field: "fulfillment", Reason: "no fulfillment selection"}
	}
	return nil
}

// createOrders issues one insert per selected category. Categories absent
// from the cart are skipped. Creations are independent, so they run
// concurrently; a subset failing is reported as partial success, every one
// failing as a collaborator error.
func (s *Service) createOrders(ctx context.Context, req SubmitRequest, cust customer.Customer, proofRef string) ([]domain.RawOrder, *PartialSubmissionError, error) {
	overall := catalog.CartSubtotal(req.Lines)
	now := s.now().UTC()

	categoryIDs := make([]string, 0, len(req.Selections))
	for id := range req.Selections {
		categoryIDs = append(categoryIDs, id)
	}
	sort.Strings(categoryIDs)

	type outcome struct {
		categoryID string
		order      domain.RawOrder
		err        error
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []outcome
	)
	for _, categoryID := range categoryIDs {
		lines := linesForCategory(req.Lines, categoryID)
		if len(lines) == 0 {
			continue // selected category not in cart: no-op
		}

		o := s.buildOrder(req, cust, proofRef, categoryID, lines, overall, now)

		wg.Add(1)
		go func(categoryID string, o domain.RawOrder) {
			defer wg.Done()
			err := s.orders.Create(ctx, o)
			if err == nil {
				s.reserveSlotFor(ctx, categoryID, o)
			}
			mu.Lock()
			outcomes = append(outcomes, outcome{categoryID: categoryID, order: o, err: err})
			mu.Unlock()
		}(categoryID, o)
	}
	wg.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].categoryID < outcomes[j].categoryID })

	var (
		created []domain.RawOrder
		failed  = map[string]error{}
	)
	for _, oc := range outcomes {
		if oc.err != nil {
			s.log.Error("order creation failed", "category", oc.categoryID, "err", oc.err)
			failed[oc.categoryID] = oc.err
			continue
		}
		created = append(created, oc.order)
	}

	if len(created) == 0 {
		if len(failed) > 0 {
			var first error
			for _, err := range failed {
				first = err
				break
			}
			return nil, nil, &CollaboratorError{Step: StepOrderCreate, Err: first}
		}
		return nil, nil, ErrNoValidOrders
	}

	var partial *PartialSubmissionError
	if len(failed) > 0 {
		ids := make([]string, 0, len(created))
		for _, o := range created {
			ids = append(ids, o.ID)
		}
		partial = &PartialSubmissionError{CreatedIDs: ids, Failed: failed}
	}
	return created, partial, nil
}

func (s *Service) buildOrder(req SubmitRequest, cust customer.Customer, proofRef, categoryID string,
	lines []catalog.CartLine, overall float64, now time.Time) domain.RawOrder {

	sel := req.Selections[categoryID]
	subtotal := catalog.CartSubtotal(lines)

	// Tax and discount are apportioned by the category's share of the cart.
	var taxShare, discountShare float64
	if overall > 0 {
		taxShare = subtotal * (req.TaxAmount / overall)
		discountShare = subtotal * (req.DiscountAmount / overall)
	}

	o := domain.RawOrder{
		ID:              uuid.NewString(),
		CustomerID:      cust.ID,
		CustomerName:    cust.Name,
		CustomerEmail:   cust.Email,
		CustomerPhone:   cust.Phone,
		Subtotal:        subtotal,
		TaxAmount:       taxShare,
		DiscountAmount:  discountShare,
		TotalAmount:     subtotal + taxShare - discountShare,
		Fulfillment:     sel.Fulfillment,
		Status:          domain.StatusPending,
		Notes:           req.Notes,
		PaymentProofRef: proofRef,
		CreatedAt:       now,
	}
	if o.Fulfillment == "" {
		o.Fulfillment = catalog.FulfillmentDelivery
	}
	switch o.Fulfillment {
	case catalog.FulfillmentPickup:
		o.PickupTime = sel.PickupTime
		o.PickupLocation = sel.PickupLocation
	default:
		o.DeliveryDate = sel.Date
		o.DeliveryAddress = sel.DeliveryAddress
		o.DeliverySlot = sel.DeliverySlot
	}

	for _, l := range lines {
		o.Items = append(o.Items, domain.OrderLine{
			ItemID:     l.ItemID,
			CategoryID: l.CategoryID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	return o
}

// reserveSlotFor books the delivery slot consumed by a created order. Losing
// the race is logged, not fatal: the order stands and the vendor resolves the
// clash manually.
func (s *Service) reserveSlotFor(ctx context.Context, categoryID string, o domain.RawOrder) {
	if s.slots == nil || o.Fulfillment != catalog.FulfillmentDelivery || o.DeliverySlot == "" {
		return
	}
	if err := s.slots.ReserveSlot(ctx, categoryID, o.DeliveryDate, o.DeliverySlot); err != nil {
		s.log.Warn("slot booking failed after order creation",
			"order_id", o.ID, "category", categoryID, "slot", o.DeliverySlot, "err", err)
	}
}

func (s *Service) decrementStock(ctx context.Context, created []domain.RawOrder) error {
	var firstErr error
	for _, o := range created {
		for _, it := range o.Items {
			if err := s.stock.Decrement(ctx, it.ItemID, it.Quantity); err != nil {
				s.log.Error("stock decrement failed", "item_id", it.ItemID, "qty", it.Quantity, "err", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

func linesForCategory(lines []catalog.CartLine, categoryID string) []catalog.CartLine {
	var out []catalog.CartLine
	for _, l := range lines {
		if l.CategoryID == categoryID {
			out = append(out, l)
		}
	}
	return out
}
