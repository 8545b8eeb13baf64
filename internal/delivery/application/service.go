package application

import (
	"context"
	"fmt"
	"log/slog"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/delivery/domain"
)

type Service struct {
	log    *slog.Logger
	rules  RuleRepository
	engine domain.Engine
}

func NewService(log *slog.Logger, rules RuleRepository) *Service {
	return &Service{log: log, rules: rules, engine: domain.NewEngine()}
}

// CheckEligibility decides whether the cart qualifies for delivery under the
// vendor's active rules.
func (s *Service) CheckEligibility(ctx context.Context, vendorID string, lines []catalog.CartLine) (bool, []domain.GroupTrace, error) {
	rules, err := s.rules.ActiveRules(ctx, vendorID)
	if err != nil {
		return false, nil, err
	}
	eligible, traces := s.engine.Evaluate(lines, rules)
	return eligible, traces, nil
}

func (s *Service) ListRules(ctx context.Context, vendorID string) ([]domain.DeliveryRule, error) {
	return s.rules.AllRules(ctx, vendorID)
}

func (s *Service) RuleSummaries(ctx context.Context, vendorID string) ([]GroupSummary, error) {
	return s.rules.GroupSummaries(ctx, vendorID)
}

func (s *Service) SaveRule(ctx context.Context, rule domain.DeliveryRule) error {
	if rule.MinimumItems < 1 {
		return fmt.Errorf("minimum items must be at least 1, got %d", rule.MinimumItems)
	}
	if rule.GroupID == "" {
		return fmt.Errorf("rule group id is required")
	}
	if rule.Operator == "" {
		rule.Operator = domain.GroupOR
	}
	return s.rules.UpsertRule(ctx, rule)
}

func (s *Service) DeleteRule(ctx context.Context, id string) error {
	return s.rules.DeleteRule(ctx, id)
}

func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	return s.rules.DeleteGroup(ctx, groupID)
}
