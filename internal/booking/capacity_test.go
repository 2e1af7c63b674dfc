package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

var baseDate = time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)

func seedReservation(t *testing.T, st *memStore, restaurantID uint64, date time.Time, guests int, status model.ReservationStatus) *model.Reservation {
	t.Helper()
	saved, err := st.SaveReservation(context.Background(), &model.Reservation{
		UserID:          1,
		RestaurantID:    restaurantID,
		ReservationDate: date,
		GuestName:       "seed",
		GuestCount:      guests,
		Status:          status,
	})
	require.NoError(t, err)
	return saved
}

func TestCapacityRejectsWhenWindowSumExceedsMax(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	seedReservation(t, st, 1, baseDate, 8, model.StatusConfirmed)

	cand := &model.Reservation{RestaurantID: 1, ReservationDate: baseDate.Add(time.Hour), GuestCount: 3}
	err := checkCapacity(context.Background(), st, rest, cand)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 8, capErr.Current)
	assert.Equal(t, 3, capErr.Adding)
	assert.Equal(t, 10, capErr.Max)
}

func TestCapacityAdmitsExactFit(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	seedReservation(t, st, 1, baseDate, 8, model.StatusConfirmed)

	cand := &model.Reservation{RestaurantID: 1, ReservationDate: baseDate.Add(time.Hour), GuestCount: 2}
	require.NoError(t, checkCapacity(context.Background(), st, rest, cand))
}

func TestCapacityWindowBoundsAreInclusive(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	// exactly 2h before the candidate: still inside the window
	seedReservation(t, st, 1, baseDate.Add(-2*time.Hour), 8, model.StatusConfirmed)

	cand := &model.Reservation{RestaurantID: 1, ReservationDate: baseDate, GuestCount: 3}
	var capErr *CapacityError
	require.ErrorAs(t, checkCapacity(context.Background(), st, rest, cand), &capErr)

	// just past 2h: outside the window, no longer counted
	st2 := newMemStore()
	seedReservation(t, st2, 1, baseDate.Add(-2*time.Hour-time.Second), 8, model.StatusConfirmed)
	require.NoError(t, checkCapacity(context.Background(), st2, rest, cand))
}

func TestCapacityIgnoresReleasedStatuses(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	seedReservation(t, st, 1, baseDate, 8, model.StatusCancelled)
	seedReservation(t, st, 1, baseDate, 8, model.StatusCompleted)
	seedReservation(t, st, 1, baseDate, 4, model.StatusPending)

	// only the PENDING 4 counts; 4+6 fits exactly
	cand := &model.Reservation{RestaurantID: 1, ReservationDate: baseDate, GuestCount: 6}
	require.NoError(t, checkCapacity(context.Background(), st, rest, cand))

	cand.GuestCount = 7
	var capErr *CapacityError
	require.ErrorAs(t, checkCapacity(context.Background(), st, rest, cand), &capErr)
	assert.Equal(t, 4, capErr.Current)
}

func TestCapacityExcludesOwnRowOnUpdate(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	existing := seedReservation(t, st, 1, baseDate, 8, model.StatusConfirmed)

	// re-admitting the same reservation with a bigger party must not
	// double-count its stored 8 guests
	cand := &model.Reservation{ID: existing.ID, RestaurantID: 1, ReservationDate: baseDate, GuestCount: 10}
	require.NoError(t, checkCapacity(context.Background(), st, rest, cand))
}

func TestCapacityOtherRestaurantDoesNotCount(t *testing.T) {
	st := newMemStore()
	rest := &model.Restaurant{ID: 1, MaxCapacity: 10}
	seedReservation(t, st, 2, baseDate, 8, model.StatusConfirmed)

	cand := &model.Reservation{RestaurantID: 1, ReservationDate: baseDate, GuestCount: 10}
	require.NoError(t, checkCapacity(context.Background(), st, rest, cand))
}
