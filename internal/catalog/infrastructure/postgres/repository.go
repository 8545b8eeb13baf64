package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozkantan/lokma/internal/catalog/domain"
)

var ErrCategoryNotFound = errors.New("category not found")

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const categoryColumns = `id, vendor_id, name_tr, name_en, sort_index, fulfillment, pickup_days, COALESCE(custom_pickup, '[]')`

func (r *Repository) ListCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM menu_categories ORDER BY sort_index, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MenuCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id string) (domain.MenuCategory, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM menu_categories WHERE id=$1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MenuCategory{}, ErrCategoryNotFound
	}
	return c, err
}

func (r *Repository) ListItems(ctx context.Context, categoryID string) ([]domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, name_tr, name_en, price, available
		 FROM menu_items WHERE category_id=$1 ORDER BY name_tr`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Name.TR, &it.Name.EN, &it.Price, &it.Available); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Decrement reduces a menu item's available quantity. The WHERE guard makes
// the database the arbiter of the last-unit race; a failed guard surfaces as
// ErrInsufficientStock.
func (r *Repository) Decrement(ctx context.Context, itemID string, qty int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE menu_items SET available = available - $2 WHERE id=$1 AND available >= $2`,
		itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func scanCategory(row pgx.Row) (domain.MenuCategory, error) {
	var (
		c             domain.MenuCategory
		fulfillment   []string
		pickupDays    []int32
		customPickupB []byte
	)
	err := row.Scan(&c.ID, &c.VendorID, &c.Name.TR, &c.Name.EN, &c.SortIndex,
		&fulfillment, &pickupDays, &customPickupB)
	if err != nil {
		return domain.MenuCategory{}, err
	}
	for _, f := range fulfillment {
		c.Fulfillment = append(c.Fulfillment, domain.FulfillmentType(f))
	}
	for _, d := range pickupDays {
		c.PickupDays = append(c.PickupDays, time.Weekday(d))
	}
	if len(customPickupB) > 0 {
		if err := json.Unmarshal(customPickupB, &c.CustomPickup); err != nil {
			return domain.MenuCategory{}, err
		}
	}
	return c, nil
}
