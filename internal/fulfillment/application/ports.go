package application

import (
	"context"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
)

type CategoryReader interface {
	GetCategory(ctx context.Context, id string) (catalog.MenuCategory, error)
	ListCategories(ctx context.Context) ([]catalog.MenuCategory, error)
}

type SlotConfigRepository interface {
	ActivatedSlots(ctx context.Context, categoryID string, day time.Weekday) ([]string, error)
	SaveActivatedSlots(ctx context.Context, categoryID string, day time.Weekday, slots []string) error
}

type BookingRepository interface {
	BookedSlots(ctx context.Context, categoryID, date string) ([]string, error)
	// Book claims a (category, date, slot) combination; must fail with
	// domain.ErrSlotTaken when already consumed.
	Book(ctx context.Context, categoryID, date, slot string) error
}

// SlotClaimer is a fast best-effort pre-check in front of the booking insert.
// The database constraint remains the arbiter.
type SlotClaimer interface {
	Claim(ctx context.Context, categoryID, date, slot string) (bool, error)
}
