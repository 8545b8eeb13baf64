package domain

import "time"

// LocalizedText is a two-locale display name pair.
type LocalizedText struct {
	TR string `json:"tr"`
	EN string `json:"en"`
}

type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// PickupOption is one (location, time-of-day) pair from a category's custom
// pickup configuration.
type PickupOption struct {
	Location string `json:"location"`
	Time     string `json:"time"` // HH:MM, 24-hour
}

type MenuCategory struct {
	ID          string           `json:"id"`
	VendorID    string           `json:"vendorId"`
	Name        LocalizedText    `json:"name"`
	SortIndex   int              `json:"sortIndex"`
	Fulfillment []FulfillmentType `json:"fulfillment"`

	// PickupDays lists the weekdays on which pickup is offered. Empty means
	// unrestricted.
	PickupDays []time.Weekday `json:"pickupDays"`

	// CustomPickup, when non-empty, replaces the vendor-wide pickup flow for
	// this category.
	CustomPickup []PickupOption `json:"customPickup,omitempty"`
}

func (c MenuCategory) Supports(ft FulfillmentType) bool {
	for _, f := range c.Fulfillment {
		if f == ft {
			return true
		}
	}
	return false
}

// PickupOnly reports whether the category offers pickup and nothing else.
func (c MenuCategory) PickupOnly() bool {
	return c.Supports(FulfillmentPickup) && !c.Supports(FulfillmentDelivery)
}

// DayAllowed reports whether the weekday is in the category's pickup-day set.
// An empty set allows every day.
func (c MenuCategory) DayAllowed(day time.Weekday) bool {
	if len(c.PickupDays) == 0 {
		return true
	}
	for _, d := range c.PickupDays {
		if d == day {
			return true
		}
	}
	return false
}
