package queue

// ReservationConfirmedEvent is published when a reservation is
// admitted with status CONFIRMED.  It carries enough information for
// downstream consumers to log, notify, or feed analytics without
// querying the primary database.
type ReservationConfirmedEvent struct {
	EventID         string `json:"event_id"`
	ReservationID   uint64 `json:"reservation_id"`
	UserID          uint64 `json:"user_id"`
	RestaurantID    uint64 `json:"restaurant_id"`
	RestaurantName  string `json:"restaurant_name"`
	GuestName       string `json:"guest_name"`
	RoomNumber      string `json:"room_number,omitempty"`
	IsHotelGuest    bool   `json:"is_hotel_guest"`
	MealDeducted    bool   `json:"meal_deducted"`
	GuestCount      int    `json:"guest_count"`
	ReservationDate string `json:"reservation_date"`
	ConfirmedAt     string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a reservation that held
// capacity is deleted, so downstream systems can release any derived
// state (notifications, kitchen planning).
type ReservationCancelledEvent struct {
	EventID         string `json:"event_id"`
	ReservationID   uint64 `json:"reservation_id"`
	UserID          uint64 `json:"user_id"`
	RestaurantID    uint64 `json:"restaurant_id"`
	GuestCount      int    `json:"guest_count"`
	ReservationDate string `json:"reservation_date"`
	CancelledAt     string `json:"cancelled_at"`
}
