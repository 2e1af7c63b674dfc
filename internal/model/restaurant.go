package model

import "time"

// RestaurantType classifies a dining venue.  The values mirror the
// `restaurant_type` enum column.
type RestaurantType string

const (
	RestaurantFineDining RestaurantType = "FINE_DINING"
	RestaurantCasual     RestaurantType = "CASUAL"
	RestaurantBuffet     RestaurantType = "BUFFET"
	RestaurantSpecialty  RestaurantType = "SPECIALTY"
)

// Valid reports whether t is one of the known restaurant types.
func (t RestaurantType) Valid() bool {
	switch t {
	case RestaurantFineDining, RestaurantCasual, RestaurantBuffet, RestaurantSpecialty:
		return true
	}
	return false
}

// Restaurant represents a dining venue inside the hotel complex.
// A restaurant accepts reservations up to MaxCapacity guests within
// any occupancy window; DefaultCapacity is the typical seating and
// is informational only.  This struct corresponds to a row in the
// `restaurants` table.
//
// Fields:
//  ID                   – primary key identifier.
//  Name                 – display name of the venue.
//  Type                 – venue classification (FINE_DINING, CASUAL,
//                         BUFFET, SPECIALTY).
//  Location             – where the venue sits inside the complex.
//  Description          – optional free-form description.
//  DefaultCapacity      – typical seating, not enforced.
//  MaxCapacity          – hard guest ceiling enforced per window (>= 0).
//  AcceptsOutsideGuests – whether non-hotel guests may book.
//  RoomOnly             – accepts only hotel guests when true.
//  CreatedAt            – creation timestamp.
//  UpdatedAt            – last update timestamp.
type Restaurant struct {
	ID                   uint64         // restaurants.id
	Name                 string         // restaurants.name
	Type                 RestaurantType // restaurants.restaurant_type
	Location             string         // restaurants.location
	Description          *string        // restaurants.description (nullable)
	DefaultCapacity      int            // restaurants.default_capacity
	MaxCapacity          int            // restaurants.max_capacity
	AcceptsOutsideGuests bool           // restaurants.accepts_outside_guests
	RoomOnly             bool           // restaurants.room_only
	CreatedAt            time.Time      // restaurants.created_at
	UpdatedAt            time.Time      // restaurants.updated_at
}
