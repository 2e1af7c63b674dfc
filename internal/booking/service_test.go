package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// countingStore wraps memStore to observe which guards hit the store.
type countingStore struct {
	*memStore
	capacityReads int32
	mealReads     int32
}

func (c *countingStore) SumGuestCountInWindow(ctx context.Context, restaurantID uint64, start, end time.Time, statuses []model.ReservationStatus, excludeID uint64) (int, error) {
	atomic.AddInt32(&c.capacityReads, 1)
	return c.memStore.SumGuestCountInWindow(ctx, restaurantID, start, end, statuses, excludeID)
}

func (c *countingStore) ExistsActiveMealDeduction(ctx context.Context, roomNumber string, excludeID uint64) (bool, error) {
	atomic.AddInt32(&c.mealReads, 1)
	return c.memStore.ExistsActiveMealDeduction(ctx, roomNumber, excludeID)
}

func newTestEngine(t *testing.T) (*Service, *memStore) {
	t.Helper()
	st := newMemStore()
	st.addUser(model.User{ID: 1, Username: "frontdesk"})
	st.addRestaurant(model.Restaurant{ID: 1, Name: "Amaranta", MaxCapacity: 10, AcceptsOutsideGuests: true})
	st.addRestaurant(model.Restaurant{ID: 2, Name: "La Terrazza", MaxCapacity: 20, RoomOnly: true})
	return NewService(st), st
}

func validCandidate() *model.Reservation {
	return &model.Reservation{
		UserID:          1,
		RestaurantID:    1,
		ReservationDate: baseDate,
		GuestName:       "Dua Krasniqi",
		GuestCount:      2,
	}
}

func TestCreateDefaultsToConfirmed(t *testing.T) {
	engine, _ := newTestEngine(t)

	created, err := engine.Create(context.Background(), validCandidate())
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, created.Status)
	assert.NotZero(t, created.ID)
}

func TestCreateKeepsExplicitStatus(t *testing.T) {
	engine, _ := newTestEngine(t)

	cand := validCandidate()
	cand.Status = model.StatusPending
	created, err := engine.Create(context.Background(), cand)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, created.Status)
}

func TestCreateValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.Reservation)
	}{
		{"missing user", func(r *model.Reservation) { r.UserID = 0 }},
		{"missing restaurant", func(r *model.Reservation) { r.RestaurantID = 0 }},
		{"missing date", func(r *model.Reservation) { r.ReservationDate = time.Time{} }},
		{"blank guest name", func(r *model.Reservation) { r.GuestName = "   " }},
		{"zero guests", func(r *model.Reservation) { r.GuestCount = 0 }},
		{"unknown status", func(r *model.Reservation) { r.Status = "SEATED" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cand := validCandidate()
			tc.mutate(cand)
			_, err := engine.Create(ctx, cand)
			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

func TestCreateUnknownReferencesAreNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	cand := validCandidate()
	cand.UserID = 99
	_, err := engine.Create(ctx, cand)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "user", nfErr.Kind)
	assert.Equal(t, "user not found with id: 99", nfErr.Error())

	cand = validCandidate()
	cand.RestaurantID = 42
	_, err = engine.Create(ctx, cand)
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "restaurant", nfErr.Kind)
}

func TestCreateRejectionPersistsNothing(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	cand := validCandidate()
	cand.GuestCount = 11 // over MaxCapacity on an empty book
	_, err := engine.Create(ctx, cand)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)

	all, err := st.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateGuardOrderEligibilityBeforeCapacity(t *testing.T) {
	engine, _ := newTestEngine(t)

	// outside guest at the room-only restaurant with an oversized party:
	// the eligibility rejection must fire, not the capacity one
	cand := validCandidate()
	cand.RestaurantID = 2
	cand.GuestCount = 100
	_, err := engine.Create(context.Background(), cand)
	var eligErr *EligibilityError
	require.ErrorAs(t, err, &eligErr)
}

func TestUpdateNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.Update(context.Background(), 7, validCandidate())
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "reservation", nfErr.Kind)
}

func TestUpdateIdempotentSelfUpdate(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	// fill the restaurant exactly
	cand := validCandidate()
	cand.GuestCount = 10
	created, err := engine.Create(ctx, cand)
	require.NoError(t, err)

	// re-submitting the identical payload must not conflict with the
	// reservation's own occupancy
	updated, err := engine.Update(ctx, created.ID, &model.Reservation{
		UserID:          created.UserID,
		RestaurantID:    created.RestaurantID,
		ReservationDate: created.ReservationDate,
		GuestName:       created.GuestName,
		GuestCount:      created.GuestCount,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 10, updated.GuestCount)

	all, err := st.ListReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateSkipsUnchangedGuards(t *testing.T) {
	st := newMemStore()
	st.addUser(model.User{ID: 1})
	st.addRestaurant(model.Restaurant{ID: 1, MaxCapacity: 10, AcceptsOutsideGuests: true})
	counting := &countingStore{memStore: st}
	engine := NewService(counting)
	ctx := context.Background()

	created, err := engine.Create(ctx, validCandidate())
	require.NoError(t, err)
	atomic.StoreInt32(&counting.capacityReads, 0)
	atomic.StoreInt32(&counting.mealReads, 0)

	// only the guest name changes: neither the capacity nor the
	// meal-benefit guard should touch the store
	upd := *created
	upd.GuestName = "renamed party"
	_, err = engine.Update(ctx, created.ID, &upd)
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&counting.capacityReads))
	assert.Zero(t, atomic.LoadInt32(&counting.mealReads))

	// a date change re-runs capacity but not the meal guard
	upd.ReservationDate = baseDate.Add(3 * time.Hour)
	_, err = engine.Update(ctx, created.ID, &upd)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&counting.capacityReads))
	assert.Zero(t, atomic.LoadInt32(&counting.mealReads))
}

func TestUpdateMealGuardRunsWhenClaimChanges(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// room 204 already claimed its meal
	first := validCandidate()
	first.IsHotelGuest = true
	first.RoomNumber = "204"
	first.MealDeducted = true
	_, err := engine.Create(ctx, first)
	require.NoError(t, err)

	// second booking in the same room without the claim is fine
	second := validCandidate()
	second.IsHotelGuest = true
	second.RoomNumber = "204"
	created, err := engine.Create(ctx, second)
	require.NoError(t, err)

	// flipping meal_deducted on must now hit the guard and fail
	upd := *created
	upd.MealDeducted = true
	_, err = engine.Update(ctx, created.ID, &upd)
	var mealErr *MealBenefitError
	require.ErrorAs(t, err, &mealErr)
	assert.Equal(t, "204", mealErr.RoomNumber)
}

func TestUpdateMealGuardRunsWhenRoomChanges(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first := validCandidate()
	first.IsHotelGuest = true
	first.RoomNumber = "204"
	first.MealDeducted = true
	_, err := engine.Create(ctx, first)
	require.NoError(t, err)

	second := validCandidate()
	second.IsHotelGuest = true
	second.RoomNumber = "305"
	second.MealDeducted = true
	created, err := engine.Create(ctx, second)
	require.NoError(t, err)

	// moving the claimed meal into the already-claimed room 204 must fail
	upd := *created
	upd.RoomNumber = "204"
	_, err = engine.Update(ctx, created.ID, &upd)
	var mealErr *MealBenefitError
	require.ErrorAs(t, err, &mealErr)
}

func TestCancelledReservationReleasesCapacity(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	cand := validCandidate()
	cand.GuestCount = 10
	created, err := engine.Create(ctx, cand)
	require.NoError(t, err)

	// the book is full
	_, err = engine.Create(ctx, validCandidate())
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)

	// cancelling frees the seats
	upd := *created
	upd.Status = model.StatusCancelled
	_, err = engine.Update(ctx, created.ID, &upd)
	require.NoError(t, err)

	_, err = engine.Create(ctx, validCandidate())
	require.NoError(t, err)
}

func TestDeleteReturnsRemovedReservation(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.Create(ctx, validCandidate())
	require.NoError(t, err)

	deleted, err := engine.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, created.GuestName, deleted.GuestName)

	all, err := st.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = engine.Delete(ctx, created.ID)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestStatsZeroFilled(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, validCandidate())
	require.NoError(t, err)

	counts, err := engine.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, counts, len(model.AllStatuses))
	assert.Equal(t, 1, counts[model.StatusConfirmed])
	assert.Equal(t, 0, counts[model.StatusPending])
	assert.Equal(t, 0, counts[model.StatusCancelled])
	assert.Equal(t, 0, counts[model.StatusCompleted])

	_, err = engine.Stats(ctx, 42)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestCountByRestaurant(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	total, err := engine.CountByRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, err = engine.Create(ctx, validCandidate())
	require.NoError(t, err)
	created, err := engine.Create(ctx, validCandidate())
	require.NoError(t, err)

	// cancelled rows still count toward the all-time total
	upd := *created
	upd.Status = model.StatusCancelled
	_, err = engine.Update(ctx, created.ID, &upd)
	require.NoError(t, err)

	total, err = engine.CountByRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = engine.CountByRestaurant(ctx, 42)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "restaurant", nfErr.Kind)
}

func TestSearchMatchesRestaurantName(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.Create(ctx, validCandidate())
	require.NoError(t, err)

	// the term matches the restaurant's name, not the guest or room
	found, err := engine.Search(ctx, "amaranta", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	found, err = engine.Search(ctx, "terrazza", 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestHasMealBeenDeducted(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	used, err := engine.HasMealBeenDeducted(ctx, "204")
	require.NoError(t, err)
	assert.False(t, used)

	cand := validCandidate()
	cand.IsHotelGuest = true
	cand.RoomNumber = "204"
	cand.MealDeducted = true
	_, err = engine.Create(ctx, cand)
	require.NoError(t, err)

	used, err = engine.HasMealBeenDeducted(ctx, "204")
	require.NoError(t, err)
	assert.True(t, used)
}

// stallingStore delays the return of one FindReservation call so the
// test can rewrite the stored row while a caller still holds the old
// snapshot.
type stallingStore struct {
	*memStore
	gateMu  sync.Mutex
	release chan struct{} // stalled read resumes when closed
	reading chan struct{} // closed once the stalled read holds its snapshot
}

func (s *stallingStore) arm() (reading, release chan struct{}) {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	s.reading = make(chan struct{})
	s.release = make(chan struct{})
	return s.reading, s.release
}

func (s *stallingStore) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.memStore.FindReservation(ctx, id)
	s.gateMu.Lock()
	reading, release := s.reading, s.release
	s.reading, s.release = nil, nil
	s.gateMu.Unlock()
	if release != nil {
		close(reading)
		<-release
	}
	return res, err
}

func newStallingEngine(t *testing.T) (*Service, *stallingStore) {
	t.Helper()
	st := newMemStore()
	st.addUser(model.User{ID: 1, Username: "frontdesk"})
	st.addRestaurant(model.Restaurant{ID: 1, Name: "Amaranta", MaxCapacity: 10, AcceptsOutsideGuests: true})
	stalling := &stallingStore{memStore: st}
	return NewService(stalling), stalling
}

func TestUpdateRechecksCapacityAfterConcurrentRewrite(t *testing.T) {
	engine, st := newStallingEngine(t)
	ctx := context.Background()

	cand := validCandidate()
	cand.GuestCount = 8
	created, err := engine.Create(ctx, cand)
	require.NoError(t, err)

	// this update keeps the same 8 guests, so a skip decision based on
	// its pre-lock snapshot would bypass the capacity guard entirely
	reading, release := st.arm()
	errCh := make(chan error, 1)
	go func() {
		upd := *created
		upd.GuestName = "late arrival"
		_, err := engine.Update(ctx, created.ID, &upd)
		errCh <- err
	}()
	<-reading

	// meanwhile the party shrinks to 2 and a new 8-seat booking fills
	// the freed window
	shrunk := *created
	shrunk.GuestCount = 2
	_, err = engine.Update(ctx, created.ID, &shrunk)
	require.NoError(t, err)
	other := validCandidate()
	other.GuestCount = 8
	_, err = engine.Create(ctx, other)
	require.NoError(t, err)

	close(release)
	err = <-errCh
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)

	total, sumErr := st.SumGuestCountInWindow(ctx, 1, baseDate.Add(-occupancyWindow), baseDate.Add(occupancyWindow), capacityStatuses, 0)
	require.NoError(t, sumErr)
	assert.LessOrEqual(t, total, 10)
}

func TestUpdateRechecksMealClaimAfterConcurrentRewrite(t *testing.T) {
	engine, st := newStallingEngine(t)
	ctx := context.Background()

	claim := validCandidate()
	claim.IsHotelGuest = true
	claim.RoomNumber = "204"
	claim.MealDeducted = true
	created, err := engine.Create(ctx, claim)
	require.NoError(t, err)

	// the stalled update re-submits meal_deducted=true unchanged, so a
	// trigger decision from its pre-lock snapshot would skip the guard
	reading, release := st.arm()
	errCh := make(chan error, 1)
	go func() {
		upd := *created
		upd.GuestName = "late arrival"
		_, err := engine.Update(ctx, created.ID, &upd)
		errCh <- err
	}()
	<-reading

	// meanwhile the claim is dropped and another booking takes room
	// 204's meal
	dropped := *created
	dropped.MealDeducted = false
	_, err = engine.Update(ctx, created.ID, &dropped)
	require.NoError(t, err)
	other := validCandidate()
	other.IsHotelGuest = true
	other.RoomNumber = "204"
	other.MealDeducted = true
	_, err = engine.Create(ctx, other)
	require.NoError(t, err)

	close(release)
	err = <-errCh
	var mealErr *MealBenefitError
	require.ErrorAs(t, err, &mealErr)
	assert.Equal(t, "204", mealErr.RoomNumber)
}

func TestConcurrentCreatesNeverOverbook(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	// MaxCapacity 10, eight racing parties of 3: at most three fit
	const workers = 8
	var admitted int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			cand := validCandidate()
			cand.GuestCount = 3
			if _, err := engine.Create(ctx, cand); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), admitted)
	total, err := st.SumGuestCountInWindow(ctx, 1, baseDate.Add(-occupancyWindow), baseDate.Add(occupancyWindow), capacityStatuses, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, total, 10)
}

func TestConcurrentMealClaimsSingleWinner(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	const workers = 6
	var admitted int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			cand := validCandidate()
			cand.IsHotelGuest = true
			cand.RoomNumber = "204"
			cand.MealDeducted = true
			if _, err := engine.Create(ctx, cand); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted)
}
