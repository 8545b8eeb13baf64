package domain

import (
	"sort"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

// UnificationResult says whether every cart category can share one pickup
// flow at checkout. When ShouldUnify is false each category is checked out
// independently with its own fulfillment configuration.
type UnificationResult struct {
	ShouldUnify bool           `json:"shouldUnify"`
	PickupDays  []time.Weekday `json:"pickupDays,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// PickupLocation aggregates all distinct pickup times offered at one location.
type PickupLocation struct {
	Location string   `json:"location"`
	Times    []string `json:"times"`
}

// Unify decides whether the categories present in the cart can share a single
// pickup flow. overrides carries per-cart fulfillment choices keyed by
// category id; a category without an override falls back to its own
// capability set.
func Unify(categories []catalog.MenuCategory, cartCategoryIDs map[string]struct{}, overrides map[string]catalog.FulfillmentType) UnificationResult {
	var relevant []catalog.MenuCategory
	for _, c := range categories {
		if _, ok := cartCategoryIDs[c.ID]; ok {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return UnificationResult{Reason: "cart has no known categories"}
	}

	for _, c := range relevant {
		if !effectivePickupOnly(c, overrides) {
			return UnificationResult{Reason: "category " + c.ID + " is not pickup-only"}
		}
		if len(c.CustomPickup) > 0 {
			return UnificationResult{Reason: "category " + c.ID + " has a custom pickup configuration"}
		}
	}

	first := relevant[0]
	for _, c := range relevant[1:] {
		if !sameDaySet(first.PickupDays, c.PickupDays) {
			return UnificationResult{Reason: "categories have conflicting pickup days"}
		}
	}

	// Conflicting sets are already excluded, so every relevant category shares
	// the first one's days.
	days := append([]time.Weekday(nil), first.PickupDays...)
	sortDays(days)
	return UnificationResult{ShouldUnify: true, PickupDays: days}
}

func effectivePickupOnly(c catalog.MenuCategory, overrides map[string]catalog.FulfillmentType) bool {
	if ft, ok := overrides[c.ID]; ok {
		return ft == catalog.FulfillmentPickup
	}
	return c.PickupOnly()
}

// CommonPickupDays intersects the pickup-day sets of categories that declare
// any. A category with an empty set is unrestricted and does not zero out the
// intersection.
func CommonPickupDays(categories []catalog.MenuCategory) []time.Weekday {
	var common map[time.Weekday]bool
	for _, c := range categories {
		if len(c.PickupDays) == 0 {
			continue
		}
		days := make(map[time.Weekday]bool, len(c.PickupDays))
		for _, d := range c.PickupDays {
			days[d] = true
		}
		if common == nil {
			common = days
			continue
		}
		for d := range common {
			if !days[d] {
				delete(common, d)
			}
		}
	}

	out := make([]time.Weekday, 0, len(common))
	for d := range common {
		out = append(out, d)
	}
	sortDays(out)
	return out
}

// CommonPickupLocations unions the custom pickup configurations across
// categories, one entry per location with all distinct times sorted.
func CommonPickupLocations(categories []catalog.MenuCategory) []PickupLocation {
	byLocation := map[string]map[string]bool{}
	for _, c := range categories {
		for _, opt := range c.CustomPickup {
			if byLocation[opt.Location] == nil {
				byLocation[opt.Location] = map[string]bool{}
			}
			byLocation[opt.Location][opt.Time] = true
		}
	}

	out := make([]PickupLocation, 0, len(byLocation))
	for loc, times := range byLocation {
		entry := PickupLocation{Location: loc}
		for t := range times {
			entry.Times = append(entry.Times, t)
		}
		sort.Strings(entry.Times)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// NextValidPickupDate walks forward from start to the first date whose weekday
// is in days. start itself wins when already valid. An empty day set returns
// start unchanged; callers that need "no pickup possible" must check emptiness
// themselves.
func NextValidPickupDate(start time.Time, days []time.Weekday) time.Time {
	if len(days) == 0 {
		return start
	}

	current := start.Weekday()
	valid := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		valid[d] = true
	}
	if valid[current] {
		return start
	}

	// Smallest valid weekday after the current one within this week, else the
	// smallest valid weekday of next week.
	sorted := append([]time.Weekday(nil), days...)
	sortDays(sorted)
	for _, d := range sorted {
		if d > current {
			return start.AddDate(0, 0, int(d-current))
		}
	}
	return start.AddDate(0, 0, 7-int(current)+int(sorted[0]))
}

func sameDaySet(a, b []time.Weekday) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[time.Weekday]bool, len(a))
	for _, d := range a {
		set[d] = true
	}
	for _, d := range b {
		if !set[d] {
			return false
		}
	}
	return true
}

func sortDays(days []time.Weekday) {
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
}
