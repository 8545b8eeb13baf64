package application

import (
	"context"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/delivery/domain"
)

type RuleRepository interface {
	ActiveRules(ctx context.Context, vendorID string) ([]domain.DeliveryRule, error)
	AllRules(ctx context.Context, vendorID string) ([]domain.DeliveryRule, error)
	UpsertRule(ctx context.Context, rule domain.DeliveryRule) error
	DeleteRule(ctx context.Context, id string) error
	DeleteGroup(ctx context.Context, groupID string) error
	// GroupSummaries is the separate read path shown next to the cart; it is
	// not part of the eligibility decision.
	GroupSummaries(ctx context.Context, vendorID string) ([]GroupSummary, error)
}

type GroupSummary struct {
	GroupID   string        `json:"groupId"`
	GroupName string        `json:"groupName"`
	Rules     []RuleSummary `json:"rules"`
}

type RuleSummary struct {
	CategoryID   string                `json:"categoryId"`
	CategoryName catalog.LocalizedText `json:"categoryName"`
	MinimumItems int                   `json:"minimumItems"`
}
