package domain

import (
	"sort"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

// UncategorizedKey buckets cart lines whose category reference is missing.
const UncategorizedKey = "uncategorized"

// GroupOperator combines the member rules of one rule-group.
type GroupOperator string

const (
	GroupOR  GroupOperator = "OR"
	GroupAND GroupOperator = "AND"
)

// DeliveryRule gates delivery on a minimum cart quantity for one category.
// Rules sharing a GroupID form a rule-group.
type DeliveryRule struct {
	ID           string        `json:"id"`
	VendorID     string        `json:"vendorId"`
	CategoryID   string        `json:"categoryId"`
	MinimumItems int           `json:"minimumItems"`
	GroupID      string        `json:"groupId"`
	GroupName    string        `json:"groupName"`
	// Operator is persisted per row but evaluation applies the engine's group
	// strategy uniformly; see Engine.
	Operator GroupOperator `json:"logicalOperator,omitempty"`
	Active   bool          `json:"isActive"`
}

type RuleTrace struct {
	RuleID     string `json:"ruleId"`
	CategoryID string `json:"categoryId"`
	Required   int    `json:"required"`
	InCart     int    `json:"inCart"`
	Satisfied  bool   `json:"satisfied"`
}

type GroupTrace struct {
	GroupID   string        `json:"groupId"`
	GroupName string        `json:"groupName"`
	Operator  GroupOperator `json:"operator"`
	Satisfied bool          `json:"satisfied"`
	Rules     []RuleTrace   `json:"rules"`
}

// Engine evaluates delivery eligibility. Operator is the strategy applied
// inside every rule-group; OR matches the behaviour the stored data was
// written against, so it is the wired default. The per-rule Operator field is
// carried through to traces but deliberately does not influence evaluation.
type Engine struct {
	Operator GroupOperator
}

func NewEngine() Engine {
	return Engine{Operator: GroupOR}
}

// IsEligible reports whether the cart as a whole qualifies for delivery.
func (e Engine) IsEligible(lines []catalog.CartLine, rules []DeliveryRule) bool {
	ok, _ := e.Evaluate(lines, rules)
	return ok
}

// Evaluate returns the eligibility decision plus a per-group trace. Groups
// and the rules within them are ordered deterministically so traces are
// reproducible.
func (e Engine) Evaluate(lines []catalog.CartLine, rules []DeliveryRule) (bool, []GroupTrace) {
	if len(lines) == 0 {
		return false, nil
	}

	quantities := QuantityByCategory(lines)

	var active []DeliveryRule
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	// Open by default: a vendor with no active rules delivers unconditionally.
	if len(active) == 0 {
		return true, nil
	}

	groups := map[string][]DeliveryRule{}
	for _, r := range active {
		groups[r.GroupID] = append(groups[r.GroupID], r)
	}
	groupIDs := make([]string, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	operator := e.Operator
	if operator == "" {
		operator = GroupOR
	}

	eligible := false
	traces := make([]GroupTrace, 0, len(groups))
	for _, gid := range groupIDs {
		members := groups[gid]
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		trace := GroupTrace{GroupID: gid, GroupName: members[0].GroupName, Operator: operator}
		satisfiedCount := 0
		for _, r := range members {
			inCart := quantities[categoryKey(r.CategoryID)]
			ok := inCart >= r.MinimumItems
			if ok {
				satisfiedCount++
			}
			trace.Rules = append(trace.Rules, RuleTrace{
				RuleID:     r.ID,
				CategoryID: r.CategoryID,
				Required:   r.MinimumItems,
				InCart:     inCart,
				Satisfied:  ok,
			})
		}

		switch operator {
		case GroupAND:
			trace.Satisfied = satisfiedCount == len(members)
		default:
			trace.Satisfied = satisfiedCount > 0
		}
		if trace.Satisfied {
			eligible = true
		}
		traces = append(traces, trace)
	}

	return eligible, traces
}

// QuantityByCategory aggregates cart quantities per category id.
func QuantityByCategory(lines []catalog.CartLine) map[string]int {
	out := map[string]int{}
	for _, l := range lines {
		out[categoryKey(l.CategoryID)] += l.Quantity
	}
	return out
}

func categoryKey(id string) string {
	if id == "" {
		return UncategorizedKey
	}
	return id
}
