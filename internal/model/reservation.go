package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  It is
// stored as the `reservation_status` enum column.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// AllStatuses lists every reservation status in declaration order.
var AllStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// HoldsCapacity reports whether a reservation in this status occupies
// seats for the purpose of the occupancy window.  CANCELLED and
// COMPLETED reservations release their seats.
func (s ReservationStatus) HoldsCapacity() bool {
	return s == StatusPending || s == StatusConfirmed
}

// statusTransitions is the explicit transition table for reservation
// statuses.  Every transition is currently allowed, matching the
// behaviour of callers setting the status directly; restricting the
// lifecycle later is an edit to this table, not an API change.
var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusCancelled: {StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusCompleted: {StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted},
}

// CanTransitionTo reports whether the transition table permits moving
// from s to next.  Unknown statuses never transition.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation records a booking of dining seats at a restaurant.
// A reservation belongs to exactly one user and one restaurant and
// occupies GuestCount seats inside the occupancy window centred on
// ReservationDate.  This struct corresponds to a row in the
// `reservations` table.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who owns the reservation.
//  RestaurantID    – restaurant being booked.
//  ReservationDate – when the party is seated (UTC).
//  GuestName       – display name for the party.
//  RoomNumber      – hotel room, required for hotel guests.
//  IsHotelGuest    – whether the party is staying at the hotel.
//  MealDeducted    – whether the room's included meal is claimed.
//  GuestCount      – number of seats occupied (>= 1).
//  Status          – lifecycle state of the booking.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            // reservations.id
	UserID          uint64            // reservations.user_id
	RestaurantID    uint64            // reservations.restaurant_id
	ReservationDate time.Time         // reservations.reservation_date
	GuestName       string            // reservations.guest_name
	RoomNumber      string            // reservations.room_number
	IsHotelGuest    bool              // reservations.is_hotel_guest
	MealDeducted    bool              // reservations.meal_deducted
	GuestCount      int               // reservations.guest_count
	Status          ReservationStatus // reservations.reservation_status
	CreatedAt       time.Time         // reservations.created_at
	UpdatedAt       time.Time         // reservations.updated_at
}
