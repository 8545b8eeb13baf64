package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozkantan/lokma/internal/fulfillment/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) ActivatedSlots(ctx context.Context, categoryID string, day time.Weekday) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slot FROM slot_config WHERE category_id=$1 AND weekday=$2 ORDER BY slot`,
		categoryID, int(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// SaveActivatedSlots replaces the weekday's configuration wholesale; the
// vendor UI always submits the full activated set.
func (r *Repository) SaveActivatedSlots(ctx context.Context, categoryID string, day time.Weekday, slots []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`DELETE FROM slot_config WHERE category_id=$1 AND weekday=$2`, categoryID, int(day))
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(`INSERT INTO slot_config (category_id, weekday, slot) VALUES ($1,$2,$3)`,
			categoryID, int(day), s)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) BookedSlots(ctx context.Context, categoryID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slot FROM delivery_time_bookings WHERE category_id=$1 AND booking_date=$2`,
		categoryID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Book inserts a booking row. The primary key on (category_id, booking_date,
// slot) makes the first writer win; everyone else sees ErrSlotTaken.
func (r *Repository) Book(ctx context.Context, categoryID, date, slot string) error {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO delivery_time_bookings (category_id, booking_date, slot, created_at)
		 VALUES ($1,$2,$3,now()) ON CONFLICT DO NOTHING`,
		categoryID, date, slot)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrSlotTaken
	}
	return nil
}
