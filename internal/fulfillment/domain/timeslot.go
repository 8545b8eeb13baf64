package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

var (
	ErrNoSlotsConfigured = errors.New("no time slots configured for this weekday")
	ErrDayNotAvailable   = errors.New("selected day is not available for this category")
	ErrSlotTaken         = errors.New("time slot already booked")
)

// TimeSlot is one bookable interval offered to a customer.
type TimeSlot struct {
	Time      string `json:"time"` // HH:MM, 24-hour
	Available bool   `json:"available"`
}

// GridSlot is one cell of the vendor dashboard's fixed half-hour grid.
type GridSlot struct {
	Time      string `json:"time"`
	Activated bool   `json:"isActivated"`
	Booked    bool   `json:"isBooked"`
}

// Fixed grid bounds: half-hour steps from 09:00 up to (not including) 18:00.
const (
	gridStartHour   = 9
	gridEndHour     = 18
	gridStepMinutes = 30
)

// ResolveSlots computes the bookable slots for a category on a calendar day.
// configured holds the vendor-activated times for that day's weekday; bookings
// holds times already consumed by completed orders on that date.
func ResolveSlots(category catalog.MenuCategory, date time.Time, configured, bookings []string) ([]TimeSlot, error) {
	if len(configured) == 0 {
		return nil, ErrNoSlotsConfigured
	}
	if !category.DayAllowed(date.Weekday()) {
		return nil, ErrDayNotAvailable
	}

	booked := toSet(bookings)
	slots := make([]TimeSlot, 0, len(configured))
	for _, t := range sortedUnique(configured) {
		slots = append(slots, TimeSlot{Time: t, Available: !booked[t]})
	}
	return slots, nil
}

// FixedGrid emits every half-hour grid slot with its activation and booking
// state, independent of whether any slot is activated at all.
func FixedGrid(activated, bookings []string) []GridSlot {
	act := toSet(activated)
	booked := toSet(bookings)

	slots := make([]GridSlot, 0, (gridEndHour-gridStartHour)*60/gridStepMinutes)
	for _, t := range gridTimes() {
		slots = append(slots, GridSlot{Time: t, Activated: act[t], Booked: booked[t]})
	}
	return slots
}

func gridTimes() []string {
	var out []string
	for h := gridStartHour; h < gridEndHour; h++ {
		for m := 0; m < 60; m += gridStepMinutes {
			out = append(out, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return out
}

func toSet(times []string) map[string]bool {
	set := make(map[string]bool, len(times))
	for _, t := range times {
		set[t] = true
	}
	return set
}

// sortedUnique returns the times deduplicated and in lexicographic order,
// which is chronological for zero-padded 24-hour strings.
func sortedUnique(times []string) []string {
	set := toSet(times)
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
