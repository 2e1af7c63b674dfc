package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// memStore is an in-memory Store used by the engine tests.  It mirrors
// the SQL store's contract: point lookups return (nil, nil) when
// absent, the window sum is inclusive on both bounds and the meal
// lookup ignores the excluded row.
type memStore struct {
	mu           sync.Mutex
	users        map[uint64]model.User
	restaurants  map[uint64]model.Restaurant
	reservations map[uint64]model.Reservation
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uint64]model.User),
		restaurants:  make(map[uint64]model.Restaurant),
		reservations: make(map[uint64]model.Reservation),
	}
}

func (m *memStore) addUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) addRestaurant(r model.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[r.ID] = r
}

func (m *memStore) FindUser(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memStore) FindRestaurant(_ context.Context, id uint64) (*model.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.restaurants[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memStore) FindReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reservations[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memStore) SumGuestCountInWindow(_ context.Context, restaurantID uint64, start, end time.Time, statuses []model.ReservationStatus, excludeID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, r := range m.reservations {
		if r.RestaurantID != restaurantID || r.ID == excludeID {
			continue
		}
		if r.ReservationDate.Before(start) || r.ReservationDate.After(end) {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				total += r.GuestCount
				break
			}
		}
	}
	return total, nil
}

func (m *memStore) ExistsActiveMealDeduction(_ context.Context, roomNumber string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID != excludeID && r.RoomNumber == roomNumber && r.MealDeducted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SaveReservation(_ context.Context, r *model.Reservation) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	saved := *r
	if saved.ID == 0 {
		m.nextID++
		saved.ID = m.nextID
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	m.reservations[saved.ID] = saved
	return &saved, nil
}

func (m *memStore) DeleteReservation(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, id)
	return nil
}

func (m *memStore) ListReservations(_ context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(model.Reservation) bool { return true }), nil
}

func (m *memStore) ListByRestaurant(_ context.Context, restaurantID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(r model.Reservation) bool { return r.RestaurantID == restaurantID }), nil
}

func (m *memStore) ListByDateRange(_ context.Context, start, end time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(r model.Reservation) bool {
		return !r.ReservationDate.Before(start) && !r.ReservationDate.After(end)
	}), nil
}

func (m *memStore) ListByRoomNumber(_ context.Context, roomNumber string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(r model.Reservation) bool { return r.RoomNumber == roomNumber }), nil
}

func (m *memStore) ListRecentByRestaurant(_ context.Context, restaurantID uint64, page, size int) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.snapshot(func(r model.Reservation) bool { return r.RestaurantID == restaurantID })
	sort.Slice(all, func(i, j int) bool { return all[i].ReservationDate.After(all[j].ReservationDate) })
	from := page * size
	if from >= len(all) {
		return []model.Reservation{}, nil
	}
	to := from + size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], nil
}

func (m *memStore) SearchReservations(_ context.Context, term string, limit int) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.snapshot(func(r model.Reservation) bool {
		if strings.Contains(strings.ToLower(r.GuestName), term) ||
			strings.Contains(strings.ToLower(r.RoomNumber), term) {
			return true
		}
		// the SQL search also joins restaurants and matches their names
		rest, ok := m.restaurants[r.RestaurantID]
		return ok && strings.Contains(strings.ToLower(rest.Name), term)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountByRestaurant(_ context.Context, restaurantID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountByStatus(_ context.Context, restaurantID uint64) (map[model.ReservationStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.ReservationStatus]int)
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (m *memStore) snapshot(keep func(model.Reservation) bool) []model.Reservation {
	out := make([]model.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
