package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozkantan/lokma/internal/order/application"
	"github.com/ozkantan/lokma/internal/order/domain"
	"github.com/ozkantan/lokma/pkg/outbox"
	"github.com/ozkantan/lokma/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

type orderPlacedPayload struct {
	OrderID       string    `json:"orderId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	TotalAmount   float64   `json:"totalAmount"`
	Fulfillment   string    `json:"fulfillmentType"`
	CreatedAt     time.Time `json:"createdAt"`
}

type statusChangedPayload struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

// Create persists the order, its line items and an OrderPlaced outbox event in
// one transaction. The relay picks the event up after commit.
func (r *Repository) Create(ctx context.Context, o domain.RawOrder) error {
	payload, err := json.Marshal(orderPlacedPayload{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
		Fulfillment:   string(o.Fulfillment),
		CreatedAt:     o.CreatedAt,
	})
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders
			(id, customer_id, customer_name, customer_email, customer_phone,
			 subtotal, tax_amount, discount_amount, total_amount,
			 fulfillment_type, delivery_date, delivery_address, delivery_slot,
			 pickup_time, pickup_location,
			 status, rejection_reason, notes, payment_proof_ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, o.CustomerID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.Subtotal, o.TaxAmount, o.DiscountAmount, o.TotalAmount,
		o.Fulfillment, o.DeliveryDate, o.DeliveryAddress, o.DeliverySlot,
		o.PickupTime, o.PickupLocation,
		o.Status, o.RejectionReason, o.Notes, o.PaymentProofRef, o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, item_id, category_id, name_tr, name_en, quantity, unit_price, discount_pct)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			o.ID, item.ItemID, item.CategoryID, item.Name.TR, item.Name.EN, item.Quantity, item.UnitPrice, item.DiscountPct)
	}
	batchResult := tx.SendBatch(ctx, batch)
	if err = batchResult.Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", o.ID, outbox.TypeOrderPlaced, payload, map[string]string{}, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, customer_id, customer_name, customer_email, customer_phone,
	subtotal, tax_amount, discount_amount, total_amount,
	fulfillment_type, delivery_date, delivery_address, delivery_slot,
	pickup_time, pickup_location,
	status, rejection_reason, notes, payment_proof_ref, created_at`

func (r *Repository) Get(ctx context.Context, id string) (domain.RawOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RawOrder{}, &application.NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return domain.RawOrder{}, err
	}

	orders := []domain.RawOrder{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.RawOrder{}, err
	}
	return orders[0], nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.RawOrder, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListByCustomer matches by customer id or lowercased email so guest and
// authenticated checkouts by the same person land in one history.
func (r *Repository) ListByCustomer(ctx context.Context, customerKey string) ([]domain.RawOrder, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE customer_id=$1 OR lower(customer_email)=$1
		ORDER BY created_at DESC`, customerKey)
}

func (r *Repository) ListSummariesByCustomer(ctx context.Context, customerKey string) ([]domain.OrderSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, customer_email, total_amount, discount_amount, fulfillment_type, status, created_at
		FROM orders
		WHERE customer_id=$1 OR lower(customer_email)=$1
		ORDER BY created_at DESC`, customerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.OrderSummary
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerEmail, &s.TotalAmount, &s.DiscountAmount, &s.Fulfillment, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdateStatus transitions one order and writes an OrderStatusChanged outbox
// event in the same transaction.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, reason string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var name, email string
	err = tx.QueryRow(ctx, `UPDATE orders SET status=$2, rejection_reason=$3 WHERE id=$1
		RETURNING customer_name, customer_email`, id, status, reason).Scan(&name, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return &application.NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(statusChangedPayload{
		OrderID:       id,
		Status:        string(status),
		Reason:        reason,
		CustomerName:  name,
		CustomerEmail: email,
	})
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", id, outbox.TypeOrderStatusChanged, payload, map[string]string{}, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.RawOrder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.RawOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads line items for all given orders in one round trip.
func (r *Repository) attachItems(ctx context.Context, orders []domain.RawOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, `SELECT order_id, item_id, category_id, name_tr, name_en, quantity, unit_price, discount_pct
		FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderLine
		if err := rows.Scan(&orderID, &item.ItemID, &item.CategoryID, &item.Name.TR, &item.Name.EN, &item.Quantity, &item.UnitPrice, &item.DiscountPct); err != nil {
			return err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.RawOrder, error) {
	var o domain.RawOrder
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Subtotal, &o.TaxAmount, &o.DiscountAmount, &o.TotalAmount,
		&o.Fulfillment, &o.DeliveryDate, &o.DeliveryAddress, &o.DeliverySlot,
		&o.PickupTime, &o.PickupLocation,
		&o.Status, &o.RejectionReason, &o.Notes, &o.PaymentProofRef, &o.CreatedAt)
	return o, err
}
