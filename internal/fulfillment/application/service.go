package application

import (
	"context"
	"log/slog"
	"time"

	catalog "github.com/ozkantan/lokma/internal/catalog/domain"
	"github.com/ozkantan/lokma/internal/fulfillment/domain"
)

const dateLayout = "2006-01-02"

type Service struct {
	log        *slog.Logger
	categories CategoryReader
	config     SlotConfigRepository
	bookings   BookingRepository
	claims     SlotClaimer // optional
}

func NewService(log *slog.Logger, categories CategoryReader, config SlotConfigRepository, bookings BookingRepository, claims SlotClaimer) *Service {
	return &Service{log: log, categories: categories, config: config, bookings: bookings, claims: claims}
}

// BookableSlots resolves the consumer-facing slots for a category and date.
func (s *Service) BookableSlots(ctx context.Context, categoryID string, date time.Time) ([]domain.TimeSlot, error) {
	cat, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	configured, err := s.config.ActivatedSlots(ctx, categoryID, date.Weekday())
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.BookedSlots(ctx, categoryID, date.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return domain.ResolveSlots(cat, date, configured, booked)
}

// Grid returns the vendor dashboard's fixed half-hour grid for a date.
func (s *Service) Grid(ctx context.Context, categoryID string, date time.Time) ([]domain.GridSlot, error) {
	if _, err := s.categories.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	activated, err := s.config.ActivatedSlots(ctx, categoryID, date.Weekday())
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.BookedSlots(ctx, categoryID, date.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return domain.FixedGrid(activated, booked), nil
}

func (s *Service) SaveActivatedSlots(ctx context.Context, categoryID string, day time.Weekday, slots []string) error {
	if _, err := s.categories.GetCategory(ctx, categoryID); err != nil {
		return err
	}
	return s.config.SaveActivatedSlots(ctx, categoryID, day, slots)
}

// ReserveSlot records a booking for a completed checkout. The redis claim
// shortcuts the common race; losing it is not fatal because the booking
// insert enforces uniqueness anyway.
func (s *Service) ReserveSlot(ctx context.Context, categoryID string, date, slot string) error {
	if s.claims != nil {
		ok, err := s.claims.Claim(ctx, categoryID, date, slot)
		if err != nil {
			s.log.Warn("slot claim check failed, falling through to insert", "err", err)
		} else if !ok {
			return domain.ErrSlotTaken
		}
	}
	return s.bookings.Book(ctx, categoryID, date, slot)
}

// Unification passthroughs so the HTTP layer needs only this service.

func (s *Service) UnifyPickup(ctx context.Context, cartCategoryIDs map[string]struct{}, overrides map[string]catalog.FulfillmentType) (domain.UnificationResult, []domain.PickupLocation, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return domain.UnificationResult{}, nil, err
	}
	result := domain.Unify(categories, cartCategoryIDs, overrides)

	var relevant []catalog.MenuCategory
	for _, c := range categories {
		if _, ok := cartCategoryIDs[c.ID]; ok {
			relevant = append(relevant, c)
		}
	}
	return result, domain.CommonPickupLocations(relevant), nil
}
