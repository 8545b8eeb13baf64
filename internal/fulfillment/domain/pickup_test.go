package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

func cat(id string, fulfillment []catalog.FulfillmentType, days ...time.Weekday) catalog.MenuCategory {
	return catalog.MenuCategory{ID: id, Fulfillment: fulfillment, PickupDays: days}
}

func pickupOnly(id string, days ...time.Weekday) catalog.MenuCategory {
	return cat(id, []catalog.FulfillmentType{catalog.FulfillmentPickup}, days...)
}

func inCart(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestUnifyAcceptsMatchingPickupOnlyCategories(t *testing.T) {
	categories := []catalog.MenuCategory{
		pickupOnly("bread", time.Monday, time.Wednesday),
		pickupOnly("pastry", time.Wednesday, time.Monday),
		pickupOnly("ignored", time.Friday), // not in cart
	}

	res := Unify(categories, inCart("bread", "pastry"), nil)
	require.True(t, res.ShouldUnify, res.Reason)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, res.PickupDays)
}

func TestUnifyRejectsConflictingPickupDays(t *testing.T) {
	categories := []catalog.MenuCategory{
		pickupOnly("a", time.Monday, time.Wednesday),
		pickupOnly("b", time.Tuesday, time.Thursday),
	}
	res := Unify(categories, inCart("a", "b"), nil)
	assert.False(t, res.ShouldUnify)
}

func TestUnifyRejectsDeliveryCapableCategory(t *testing.T) {
	categories := []catalog.MenuCategory{
		pickupOnly("a", time.Monday),
		cat("b", []catalog.FulfillmentType{catalog.FulfillmentPickup, catalog.FulfillmentDelivery}, time.Monday),
	}
	res := Unify(categories, inCart("a", "b"), nil)
	assert.False(t, res.ShouldUnify)

	// A per-cart pickup override makes the same cart unify.
	overrides := map[string]catalog.FulfillmentType{"b": catalog.FulfillmentPickup}
	res = Unify(categories, inCart("a", "b"), overrides)
	assert.True(t, res.ShouldUnify, res.Reason)
}

func TestUnifyRejectsCustomPickupConfiguration(t *testing.T) {
	custom := pickupOnly("a", time.Monday)
	custom.CustomPickup = []catalog.PickupOption{{Location: "market", Time: "10:00"}}

	res := Unify([]catalog.MenuCategory{custom, pickupOnly("b", time.Monday)}, inCart("a", "b"), nil)
	assert.False(t, res.ShouldUnify)
}

func TestCommonPickupDaysIntersects(t *testing.T) {
	days := CommonPickupDays([]catalog.MenuCategory{
		pickupOnly("a", time.Monday, time.Wednesday, time.Friday),
		pickupOnly("b", time.Wednesday, time.Friday, time.Saturday),
	})
	assert.Equal(t, []time.Weekday{time.Wednesday, time.Friday}, days)
}

func TestCommonPickupDaysIgnoresUnrestrictedCategories(t *testing.T) {
	days := CommonPickupDays([]catalog.MenuCategory{
		pickupOnly("a", time.Monday, time.Friday),
		pickupOnly("unrestricted"), // no declared days must not zero the intersection
	})
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, days)
}

func TestCommonPickupLocationsUnionsByLocation(t *testing.T) {
	a := pickupOnly("a")
	a.CustomPickup = []catalog.PickupOption{
		{Location: "market", Time: "12:00"},
		{Location: "market", Time: "10:00"},
	}
	b := pickupOnly("b")
	b.CustomPickup = []catalog.PickupOption{
		{Location: "market", Time: "10:00"},
		{Location: "bakery", Time: "09:00"},
	}

	locations := CommonPickupLocations([]catalog.MenuCategory{a, b})
	require.Len(t, locations, 2)
	assert.Equal(t, PickupLocation{Location: "bakery", Times: []string{"09:00"}}, locations[0])
	assert.Equal(t, PickupLocation{Location: "market", Times: []string{"10:00", "12:00"}}, locations[1])
}

func TestNextValidPickupDate(t *testing.T) {
	// 2025-09-01 is a Monday.
	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("start already valid", func(t *testing.T) {
		got := NextValidPickupDate(start, []time.Weekday{time.Monday})
		assert.Equal(t, start, got)
	})

	t.Run("later this week", func(t *testing.T) {
		got := NextValidPickupDate(start, []time.Weekday{time.Thursday, time.Saturday})
		assert.Equal(t, time.Thursday, got.Weekday())
		assert.Equal(t, 4, got.Day())
	})

	t.Run("wraps to next week", func(t *testing.T) {
		got := NextValidPickupDate(start, []time.Weekday{time.Sunday})
		assert.Equal(t, time.Sunday, got.Weekday())
		assert.Equal(t, 7, got.Day())
	})

	t.Run("empty day set returns start unchanged", func(t *testing.T) {
		got := NextValidPickupDate(start, nil)
		assert.Equal(t, start, got)
	})
}
