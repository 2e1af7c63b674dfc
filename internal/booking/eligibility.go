package booking

import (
	"strings"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// checkEligibility validates the candidate against the restaurant's
// guest-acceptance policy.  Rules run in order and the first failing
// rule wins.  The function is pure: the restaurant and candidate are
// already loaded and nothing is read or written here.
func checkEligibility(rest *model.Restaurant, cand *model.Reservation) error {
	if rest.RoomOnly && !cand.IsHotelGuest {
		return &EligibilityError{Reason: "this restaurant only accepts hotel guests"}
	}
	if !rest.AcceptsOutsideGuests && !cand.IsHotelGuest {
		return &EligibilityError{Reason: "this restaurant does not accept outside guests"}
	}
	if cand.IsHotelGuest && strings.TrimSpace(cand.RoomNumber) == "" {
		return &EligibilityError{Reason: "room number is required for hotel guests"}
	}
	return nil
}
