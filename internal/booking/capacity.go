package booking

import (
	"context"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// occupancyWindow is the half-width of the interval used to
// approximate seating overlap.  A reservation occupies capacity for
// the ±2h window centred on its date; there is no explicit duration
// field, so the window stands in for table turnover.
const occupancyWindow = 2 * time.Hour

// capacityStatuses are the statuses that hold seats.  CANCELLED and
// COMPLETED reservations release their capacity.
var capacityStatuses = []model.ReservationStatus{model.StatusPending, model.StatusConfirmed}

// checkCapacity rejects the candidate when admitting it would push the
// occupancy of the restaurant inside [date-2h, date+2h] above
// MaxCapacity.  The candidate's own stored row (cand.ID, zero on
// create) is excluded from the existing sum so updates never conflict
// with themselves.
func checkCapacity(ctx context.Context, st Store, rest *model.Restaurant, cand *model.Reservation) error {
	start := cand.ReservationDate.Add(-occupancyWindow)
	end := cand.ReservationDate.Add(occupancyWindow)

	existing, err := st.SumGuestCountInWindow(ctx, rest.ID, start, end, capacityStatuses, cand.ID)
	if err != nil {
		return err
	}
	if existing+cand.GuestCount > rest.MaxCapacity {
		return &CapacityError{Current: existing, Adding: cand.GuestCount, Max: rest.MaxCapacity}
	}
	return nil
}
