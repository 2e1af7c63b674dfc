package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// Service orchestrates reservation admission and lifecycle.  Guards
// run in a fixed order (eligibility, then capacity, then meal benefit)
// so the cheapest rejection fires first, and only a candidate passing
// all three is handed to the store.  Competing admissions for the same
// restaurant or the same hotel room are serialised by advisory locks
// held across the whole guard-then-persist sequence, which closes the
// check-then-act race between concurrent bookings.
type Service struct {
	store      Store
	admissions *keyedMutex
}

// NewService returns a Service bound to the given store.
func NewService(st Store) *Service {
	if st == nil {
		panic("nil store passed to NewService")
	}
	return &Service{store: st, admissions: newKeyedMutex()}
}

func restaurantKey(id uint64) string { return fmt.Sprintf("restaurant:%d", id) }

func roomKey(room string) string {
	room = strings.TrimSpace(room)
	if room == "" {
		return ""
	}
	return "room:" + room
}

// validateCandidate rejects malformed input before any guard runs.
func validateCandidate(cand *model.Reservation) error {
	if cand.UserID == 0 {
		return &ValidationError{Reason: "user is required"}
	}
	if cand.RestaurantID == 0 {
		return &ValidationError{Reason: "restaurant is required"}
	}
	if cand.ReservationDate.IsZero() {
		return &ValidationError{Reason: "reservation date is required"}
	}
	if strings.TrimSpace(cand.GuestName) == "" {
		return &ValidationError{Reason: "guest name is required"}
	}
	if cand.GuestCount < 1 {
		return &ValidationError{Reason: "guest count must be at least 1"}
	}
	if cand.Status != "" && !cand.Status.Valid() {
		return &ValidationError{Reason: "unknown reservation status: " + string(cand.Status)}
	}
	return nil
}

// Create admits and persists a new reservation.  The status defaults
// to CONFIRMED when unset.  On any guard rejection nothing is written.
func (s *Service) Create(ctx context.Context, cand *model.Reservation) (*model.Reservation, error) {
	if err := validateCandidate(cand); err != nil {
		return nil, err
	}
	if cand.Status == "" {
		cand.Status = model.StatusConfirmed
	}

	unlock := s.admissions.lockAll(restaurantKey(cand.RestaurantID), roomKey(cand.RoomNumber))
	defer unlock()

	user, err := s.store.FindUser(ctx, cand.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: cand.UserID}
	}
	rest, err := s.store.FindRestaurant(ctx, cand.RestaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, &NotFoundError{Kind: "restaurant", ID: cand.RestaurantID}
	}

	if err := checkEligibility(rest, cand); err != nil {
		return nil, err
	}
	if err := checkCapacity(ctx, s.store, rest, cand); err != nil {
		return nil, err
	}
	if err := checkMealBenefit(ctx, s.store, cand); err != nil {
		return nil, err
	}

	return s.store.SaveReservation(ctx, cand)
}

// Update re-admits an existing reservation with merged field values.
// Eligibility always re-runs; the capacity guard only re-runs when the
// date or guest count changed, and the meal-benefit guard only when
// the hotel-guest flag, meal deduction or room changed, each excluding
// the reservation's own stored row.  The owning user and restaurant
// are fixed at creation and are not remapped here.
func (s *Service) Update(ctx context.Context, id uint64, cand *model.Reservation) (*model.Reservation, error) {
	for {
		updated, retry, err := s.tryUpdate(ctx, id, cand)
		if retry {
			continue
		}
		return updated, err
	}
}

// tryUpdate performs one locked update attempt.  The pre-lock read
// only discovers which keys to lock; the authoritative row is
// re-loaded under the locks so the merge and the guard-skip decisions
// never rest on a view a concurrent admission may have overwritten.
// When the re-load shows the lock keys themselves went stale (the
// stored room changed), retry is reported and the caller locks again
// with the fresh keys.
func (s *Service) tryUpdate(ctx context.Context, id uint64, cand *model.Reservation) (updated *model.Reservation, retry bool, err error) {
	keySrc, err := s.store.FindReservation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if keySrc == nil {
		return nil, false, &NotFoundError{Kind: "reservation", ID: id}
	}

	// Lock both room keys: the old room releases a benefit claim, the
	// new one may acquire it.
	unlock := s.admissions.lockAll(restaurantKey(keySrc.RestaurantID), roomKey(keySrc.RoomNumber), roomKey(cand.RoomNumber))
	defer unlock()

	existing, err := s.store.FindReservation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, &NotFoundError{Kind: "reservation", ID: id}
	}
	if existing.RoomNumber != keySrc.RoomNumber || existing.RestaurantID != keySrc.RestaurantID {
		return nil, true, nil
	}

	merged := *existing
	merged.ReservationDate = cand.ReservationDate
	merged.GuestName = cand.GuestName
	merged.RoomNumber = cand.RoomNumber
	merged.IsHotelGuest = cand.IsHotelGuest
	merged.MealDeducted = cand.MealDeducted
	merged.GuestCount = cand.GuestCount
	if cand.Status != "" {
		merged.Status = cand.Status
	}
	if err := validateCandidate(&merged); err != nil {
		return nil, false, err
	}
	if !existing.Status.CanTransitionTo(merged.Status) {
		return nil, false, &ValidationError{Reason: fmt.Sprintf("cannot transition reservation from %s to %s", existing.Status, merged.Status)}
	}

	rest, err := s.store.FindRestaurant(ctx, merged.RestaurantID)
	if err != nil {
		return nil, false, err
	}
	if rest == nil {
		return nil, false, &NotFoundError{Kind: "restaurant", ID: merged.RestaurantID}
	}

	if err := checkEligibility(rest, &merged); err != nil {
		return nil, false, err
	}
	if !existing.ReservationDate.Equal(merged.ReservationDate) || existing.GuestCount != merged.GuestCount {
		if err := checkCapacity(ctx, s.store, rest, &merged); err != nil {
			return nil, false, err
		}
	}
	if existing.IsHotelGuest != merged.IsHotelGuest || existing.MealDeducted != merged.MealDeducted || existing.RoomNumber != merged.RoomNumber {
		if err := checkMealBenefit(ctx, s.store, &merged); err != nil {
			return nil, false, err
		}
	}

	updated, err = s.store.SaveReservation(ctx, &merged)
	return updated, false, err
}

// Delete removes a reservation and returns its final state so callers
// can publish cancellation events.  Occupancy and benefit usage are
// always recomputed from stored rows, so no rollback bookkeeping is
// needed here.
func (s *Service) Delete(ctx context.Context, id uint64) (*model.Reservation, error) {
	existing, err := s.store.FindReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return nil, err
	}
	return existing, nil
}

// Get returns a reservation by id.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.store.FindReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	return r, nil
}

// ListAll returns every reservation.
func (s *Service) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return s.store.ListReservations(ctx)
}

// ListByRestaurant returns the reservations of one restaurant.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	return s.store.ListByRestaurant(ctx, restaurantID)
}

// ListByDateRange returns reservations dated inside [start, end].
func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	return s.store.ListByDateRange(ctx, start, end)
}

// ListByRoomNumber returns reservations referencing a hotel room.
func (s *Service) ListByRoomNumber(ctx context.Context, roomNumber string) ([]model.Reservation, error) {
	return s.store.ListByRoomNumber(ctx, roomNumber)
}

// ListRecent returns a page of a restaurant's reservations ordered by
// date descending.  Page is zero-based; size falls back to 10.
func (s *Service) ListRecent(ctx context.Context, restaurantID uint64, page, size int) ([]model.Reservation, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}
	return s.store.ListRecentByRestaurant(ctx, restaurantID, page, size)
}

// Search matches reservations by guest name, room number or
// restaurant name, case-insensitively, capped at limit results.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.Reservation, error) {
	if limit < 1 {
		limit = 20
	}
	return s.store.SearchReservations(ctx, strings.ToLower(strings.TrimSpace(query)), limit)
}

// Stats returns the restaurant's reservation counts keyed by status.
// Statuses without reservations are present with a zero count.
func (s *Service) Stats(ctx context.Context, restaurantID uint64) (map[model.ReservationStatus]int, error) {
	rest, err := s.store.FindRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, &NotFoundError{Kind: "restaurant", ID: restaurantID}
	}
	counts, err := s.store.CountByStatus(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	out := make(map[model.ReservationStatus]int, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		out[st] = counts[st]
	}
	return out, nil
}

// CountByRestaurant returns the total number of reservations ever
// recorded for the restaurant, regardless of status.
func (s *Service) CountByRestaurant(ctx context.Context, restaurantID uint64) (int64, error) {
	rest, err := s.store.FindRestaurant(ctx, restaurantID)
	if err != nil {
		return 0, err
	}
	if rest == nil {
		return 0, &NotFoundError{Kind: "restaurant", ID: restaurantID}
	}
	return s.store.CountByRestaurant(ctx, restaurantID)
}

// HasMealBeenDeducted reports whether the room's included meal is
// already claimed by any reservation.
func (s *Service) HasMealBeenDeducted(ctx context.Context, roomNumber string) (bool, error) {
	return s.store.ExistsActiveMealDeduction(ctx, roomNumber, 0)
}
