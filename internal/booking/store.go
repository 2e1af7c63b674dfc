package booking

import (
	"context"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// Store is the persistence boundary consumed by the engine.  Point
// lookups return (nil, nil) when no record exists; errors are reserved
// for infrastructure failures.  Implementations must provide at least
// read-committed isolation per call; the engine serialises competing
// admissions itself via per-restaurant and per-room locks.
type Store interface {
	// FindUser returns the user with the given id, or nil when absent.
	FindUser(ctx context.Context, id uint64) (*model.User, error)
	// FindRestaurant returns the restaurant with the given id, or nil when absent.
	FindRestaurant(ctx context.Context, id uint64) (*model.Restaurant, error)
	// FindReservation returns the reservation with the given id, or nil when absent.
	FindReservation(ctx context.Context, id uint64) (*model.Reservation, error)

	// SumGuestCountInWindow sums guest_count over reservations of the
	// restaurant whose date falls inside [start, end] (inclusive) and
	// whose status is one of statuses.  When excludeID is non-zero that
	// reservation is left out of the sum so an update never conflicts
	// with its own prior occupancy.
	SumGuestCountInWindow(ctx context.Context, restaurantID uint64, start, end time.Time, statuses []model.ReservationStatus, excludeID uint64) (int, error)

	// ExistsActiveMealDeduction reports whether any reservation for the
	// room already has meal_deducted set.  When excludeID is non-zero
	// that reservation is ignored.
	ExistsActiveMealDeduction(ctx context.Context, roomNumber string, excludeID uint64) (bool, error)

	// SaveReservation inserts the reservation when its ID is zero and
	// updates the existing row otherwise.  The persisted record is
	// returned with identifiers and timestamps populated.
	SaveReservation(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
	// DeleteReservation removes the reservation row.
	DeleteReservation(ctx context.Context, id uint64) error

	// Query surface used by the read endpoints.
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error)
	ListByRoomNumber(ctx context.Context, roomNumber string) ([]model.Reservation, error)
	ListRecentByRestaurant(ctx context.Context, restaurantID uint64, page, size int) ([]model.Reservation, error)
	SearchReservations(ctx context.Context, term string, limit int) ([]model.Reservation, error)
	CountByStatus(ctx context.Context, restaurantID uint64) (map[model.ReservationStatus]int, error)
	CountByRestaurant(ctx context.Context, restaurantID uint64) (int64, error)
}
