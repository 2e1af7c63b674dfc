// Package booking implements the reservation admission-control engine:
// eligibility gating, occupancy-window capacity checks, meal-benefit
// enforcement and the reservation lifecycle.  Every guard failure is a
// distinct error type so that the HTTP layer can map rejections to
// responses without inspecting reason strings.
package booking

import "fmt"

// NotFoundError reports that a referenced user, restaurant or
// reservation does not exist.  Kind names the entity ("user",
// "restaurant", "reservation").
type NotFoundError struct {
	Kind string
	ID   uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Kind, e.ID)
}

// EligibilityError reports that a candidate reservation violates the
// target restaurant's guest-acceptance policy.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string { return e.Reason }

// CapacityError reports that admitting the candidate would exceed the
// restaurant's maximum capacity inside the occupancy window.
type CapacityError struct {
	Current int // guests already booked inside the window
	Adding  int // guests on the candidate reservation
	Max     int // the restaurant's enforced ceiling
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("restaurant capacity exceeded for the selected time. current: %d, adding: %d, max: %d",
		e.Current, e.Adding, e.Max)
}

// MealBenefitError reports that the room's included meal has already
// been claimed by another reservation.
type MealBenefitError struct {
	RoomNumber string
}

func (e *MealBenefitError) Error() string {
	return fmt.Sprintf("meal has already been deducted for room %s", e.RoomNumber)
}

// ValidationError reports a malformed candidate (missing required
// fields, non-positive guest count, unknown status).  It is raised
// before any guard runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
