package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozkantan/lokma/internal/delivery/application"
	"github.com/ozkantan/lokma/internal/delivery/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const ruleColumns = `id, vendor_id, category_id, minimum_items, rule_group_id, rule_group_name, logical_operator, is_active`

func (r *Repository) ActiveRules(ctx context.Context, vendorID string) ([]domain.DeliveryRule, error) {
	return r.query(ctx,
		`SELECT `+ruleColumns+` FROM delivery_rules WHERE vendor_id=$1 AND is_active ORDER BY id`,
		vendorID)
}

func (r *Repository) AllRules(ctx context.Context, vendorID string) ([]domain.DeliveryRule, error) {
	return r.query(ctx,
		`SELECT `+ruleColumns+` FROM delivery_rules WHERE vendor_id=$1 ORDER BY rule_group_id, id`,
		vendorID)
}

func (r *Repository) UpsertRule(ctx context.Context, rule domain.DeliveryRule) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO delivery_rules (id, vendor_id, category_id, minimum_items, rule_group_id, rule_group_name, logical_operator, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET
			category_id=$3, minimum_items=$4, rule_group_id=$5,
			rule_group_name=$6, logical_operator=$7, is_active=$8`,
		rule.ID, rule.VendorID, rule.CategoryID, rule.MinimumItems,
		rule.GroupID, rule.GroupName, string(rule.Operator), rule.Active)
	return err
}

func (r *Repository) DeleteRule(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM delivery_rules WHERE id=$1`, id)
	return err
}

func (r *Repository) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM delivery_rules WHERE rule_group_id=$1`, groupID)
	return err
}

func (r *Repository) GroupSummaries(ctx context.Context, vendorID string) ([]application.GroupSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dr.rule_group_id, dr.rule_group_name, dr.category_id,
		       COALESCE(mc.name_tr,''), COALESCE(mc.name_en,''), dr.minimum_items
		FROM delivery_rules dr
		LEFT JOIN menu_categories mc ON mc.id = dr.category_id
		WHERE dr.vendor_id=$1 AND dr.is_active
		ORDER BY dr.rule_group_id, dr.id`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out     []application.GroupSummary
		current *application.GroupSummary
	)
	for rows.Next() {
		var (
			groupID, groupName string
			rs                 application.RuleSummary
		)
		if err := rows.Scan(&groupID, &groupName, &rs.CategoryID,
			&rs.CategoryName.TR, &rs.CategoryName.EN, &rs.MinimumItems); err != nil {
			return nil, err
		}
		if current == nil || current.GroupID != groupID {
			out = append(out, application.GroupSummary{GroupID: groupID, GroupName: groupName})
			current = &out[len(out)-1]
		}
		current.Rules = append(current.Rules, rs)
	}
	return out, rows.Err()
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]domain.DeliveryRule, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DeliveryRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanRule(row pgx.Row) (domain.DeliveryRule, error) {
	var (
		rule domain.DeliveryRule
		op   string
	)
	err := row.Scan(&rule.ID, &rule.VendorID, &rule.CategoryID, &rule.MinimumItems,
		&rule.GroupID, &rule.GroupName, &op, &rule.Active)
	rule.Operator = domain.GroupOperator(op)
	return rule, err
}
