package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozkantan/lokma/internal/customer/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Upsert resolves a customer by email, merging contact info into an existing
// record without regressing opt-in flags. Returns the stored record.
func (r *Repository) Upsert(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))

	existing, err := r.getByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Customer{}, err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		c.ID = uuid.NewString()
		c.Email = email
		c.CreatedAt = time.Now().UTC()
		_, err := r.pool.Exec(ctx,
			`INSERT INTO customers (id, name, email, phone, email_opt_in, sms_opt_in, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.Name, c.Email, c.Phone, c.EmailOptIn, c.SMSOptIn, c.CreatedAt)
		if err != nil {
			return domain.Customer{}, err
		}
		return c, nil
	}

	merged := domain.Merge(existing, c)
	_, err = r.pool.Exec(ctx,
		`UPDATE customers SET name=$2, phone=$3, email_opt_in=$4, sms_opt_in=$5 WHERE id=$1`,
		merged.ID, merged.Name, merged.Phone, merged.EmailOptIn, merged.SMSOptIn)
	if err != nil {
		return domain.Customer{}, err
	}
	return merged, nil
}

func (r *Repository) getByEmail(ctx context.Context, email string) (domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, email_opt_in, sms_opt_in, created_at
		 FROM customers WHERE email=$1`, email).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.EmailOptIn, &c.SMSOptIn, &c.CreatedAt)
	return c, err
}
