package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// Store bundles the three entity repositories behind the persistence
// boundary the booking engine consumes.  Point lookups translate
// sql.ErrNoRows into a nil record so the engine never sees driver
// sentinels.
type Store struct {
	Users        *UserRepo
	Restaurants  *RestaurantRepo
	Reservations *ReservationRepo
}

// NewStore returns a Store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:        NewUserRepo(db),
		Restaurants:  NewRestaurantRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

func (s *Store) FindUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindRestaurant(ctx context.Context, id uint64) (*model.Restaurant, error) {
	rest, err := s.Restaurants.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (s *Store) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.Reservations.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Store) SumGuestCountInWindow(ctx context.Context, restaurantID uint64, start, end time.Time, statuses []model.ReservationStatus, excludeID uint64) (int, error) {
	return s.Reservations.SumGuestCountInWindow(ctx, restaurantID, start, end, statuses, excludeID)
}

func (s *Store) ExistsActiveMealDeduction(ctx context.Context, roomNumber string, excludeID uint64) (bool, error) {
	return s.Reservations.ExistsActiveMealDeduction(ctx, roomNumber, excludeID)
}

func (s *Store) SaveReservation(ctx context.Context, r *model.Reservation) (*model.Reservation, error) {
	saved, err := s.Reservations.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id uint64) error {
	return s.Reservations.Delete(ctx, id)
}

func (s *Store) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.Reservations.List(ctx)
}

func (s *Store) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByRestaurant(ctx, restaurantID)
}

func (s *Store) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	return s.Reservations.ListByDateRange(ctx, start, end)
}

func (s *Store) ListByRoomNumber(ctx context.Context, roomNumber string) ([]model.Reservation, error) {
	return s.Reservations.ListByRoomNumber(ctx, roomNumber)
}

func (s *Store) ListRecentByRestaurant(ctx context.Context, restaurantID uint64, page, size int) ([]model.Reservation, error) {
	return s.Reservations.ListRecentByRestaurant(ctx, restaurantID, page, size)
}

func (s *Store) SearchReservations(ctx context.Context, term string, limit int) ([]model.Reservation, error) {
	return s.Reservations.Search(ctx, term, limit)
}

func (s *Store) CountByStatus(ctx context.Context, restaurantID uint64) (map[model.ReservationStatus]int, error) {
	return s.Reservations.CountByStatus(ctx, restaurantID)
}

func (s *Store) CountByRestaurant(ctx context.Context, restaurantID uint64) (int64, error) {
	return s.Reservations.CountByRestaurant(ctx, restaurantID)
}
