package booking

import (
	"context"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// checkMealBenefit enforces the once-per-room included meal.  The rule
// only applies to hotel guests claiming the deduction; the search is
// global across restaurants and dates because the benefit belongs to
// the stay, not to a venue or a day.  The candidate's own stored row
// is excluded so updates never trip over themselves.
func checkMealBenefit(ctx context.Context, st Store, cand *model.Reservation) error {
	if !cand.IsHotelGuest || !cand.MealDeducted {
		return nil
	}
	used, err := st.ExistsActiveMealDeduction(ctx, cand.RoomNumber, cand.ID)
	if err != nil {
		return err
	}
	if used {
		return &MealBenefitError{RoomNumber: cand.RoomNumber}
	}
	return nil
}
