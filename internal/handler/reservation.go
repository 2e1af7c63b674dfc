package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mateohysa/aiora-reservations/internal/booking"
	"github.com/mateohysa/aiora-reservations/internal/model"
	"github.com/mateohysa/aiora-reservations/internal/queue"
	"github.com/mateohysa/aiora-reservations/internal/repository"
	queuepublisher "github.com/mateohysa/aiora-reservations/internal/service"
)

// ReservationHandler translates HTTP requests into admission-engine
// calls.  All admission decisions live in the booking package; this
// layer only binds, validates shapes, maps errors and publishes the
// lifecycle events.
type ReservationHandler struct {
	Engine      *booking.Service
	Restaurants *repository.RestaurantRepo // for enriching published events
}

func NewReservationHandler(engine *booking.Service, restaurants *repository.RestaurantRepo) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Restaurants: restaurants}
}

type reservationReq struct {
	UserID          uint64 `json:"user_id"` // optional; defaults to the caller
	RestaurantID    uint64 `json:"restaurant_id"`
	ReservationDate string `json:"reservation_date"` // RFC 3339
	GuestName       string `json:"guest_name"`
	RoomNumber      string `json:"room_number"`
	IsHotelGuest    bool   `json:"is_hotel_guest"`
	MealDeducted    bool   `json:"meal_deducted"`
	GuestCount      int    `json:"guest_count"`
	Status          string `json:"status"` // optional
}

type reservationResp struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	RestaurantID    uint64    `json:"restaurant_id"`
	ReservationDate time.Time `json:"reservation_date"`
	GuestName       string    `json:"guest_name"`
	RoomNumber      string    `json:"room_number,omitempty"`
	IsHotelGuest    bool      `json:"is_hotel_guest"`
	MealDeducted    bool      `json:"meal_deducted"`
	GuestCount      int       `json:"guest_count"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:              r.ID,
		UserID:          r.UserID,
		RestaurantID:    r.RestaurantID,
		ReservationDate: r.ReservationDate,
		GuestName:       r.GuestName,
		RoomNumber:      r.RoomNumber,
		IsHotelGuest:    r.IsHotelGuest,
		MealDeducted:    r.MealDeducted,
		GuestCount:      r.GuestCount,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func respList(rs []model.Reservation) []reservationResp {
	items := make([]reservationResp, 0, len(rs))
	for i := range rs {
		items = append(items, toReservationResp(&rs[i]))
	}
	return items
}

// toCandidate maps a request body to a reservation candidate.  The
// reservation date must be RFC 3339; a bad date yields a zero time that
// the engine's validation rejects with a clear message.
func (req *reservationReq) toCandidate(callerID uint64) *model.Reservation {
	userID := req.UserID
	if userID == 0 {
		userID = callerID
	}
	date, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ReservationDate))
	if err != nil {
		date = time.Time{}
	}
	return &model.Reservation{
		UserID:          userID,
		RestaurantID:    req.RestaurantID,
		ReservationDate: date.UTC(),
		GuestName:       strings.TrimSpace(req.GuestName),
		RoomNumber:      strings.TrimSpace(req.RoomNumber),
		IsHotelGuest:    req.IsHotelGuest,
		MealDeducted:    req.MealDeducted,
		GuestCount:      req.GuestCount,
		Status:          model.ReservationStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	}
}

// publishConfirmed emits a confirmation event in the background.  A
// broker outage never fails the admission that already happened.
func (h *ReservationHandler) publishConfirmed(r *model.Reservation) {
	if r.Status != model.StatusConfirmed {
		return
	}
	restaurantName := ""
	if h.Restaurants != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if rest, err := h.Restaurants.GetByID(ctx, r.RestaurantID); err == nil {
			restaurantName = rest.Name
		}
		cancel()
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID:   r.ID,
		UserID:          r.UserID,
		RestaurantID:    r.RestaurantID,
		RestaurantName:  restaurantName,
		GuestName:       r.GuestName,
		RoomNumber:      r.RoomNumber,
		IsHotelGuest:    r.IsHotelGuest,
		MealDeducted:    r.MealDeducted,
		GuestCount:      r.GuestCount,
		ReservationDate: r.ReservationDate.Format(time.RFC3339),
		ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		if err := queuepublisher.PublishReservationConfirmed(context.Background(), ev); err != nil {
			log.Printf("reservation %d: publish confirmed event failed: %v", r.ID, err)
		}
	}()
}

// publishCancelled emits a cancellation event for bookings that held a
// confirmed slot; deleting drafts or already-cancelled rows is silent.
func (h *ReservationHandler) publishCancelled(r *model.Reservation) {
	if r.Status != model.StatusConfirmed {
		return
	}
	ev := queue.ReservationCancelledEvent{
		ReservationID:   r.ID,
		UserID:          r.UserID,
		RestaurantID:    r.RestaurantID,
		GuestCount:      r.GuestCount,
		ReservationDate: r.ReservationDate.Format(time.RFC3339),
		CancelledAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		if err := queuepublisher.PublishReservationCancelled(context.Background(), ev); err != nil {
			log.Printf("reservation %d: publish cancelled event failed: %v", r.ID, err)
		}
	}()
}

// Create handles POST /v1/reservations.  The candidate passes through
// the eligibility, capacity and meal-benefit guards in order; a
// rejection writes nothing.
func (h *ReservationHandler) Create(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	created, err := h.Engine.Create(ctx, req.toCandidate(callerID))
	if err != nil {
		return writeBookingErr(c, err)
	}
	h.publishConfirmed(created)
	return c.JSON(http.StatusCreated, echo.Map{"item": toReservationResp(created)})
}

// CreateForRestaurant handles POST /v1/restaurants/:id/reservations.
// The path parameter pins the restaurant regardless of the body.
func (h *ReservationHandler) CreateForRestaurant(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	restaurantID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cand := req.toCandidate(callerID)
	cand.RestaurantID = restaurantID
	created, err := h.Engine.Create(ctx, cand)
	if err != nil {
		return writeBookingErr(c, err)
	}
	h.publishConfirmed(created)
	return c.JSON(http.StatusCreated, echo.Map{"item": toReservationResp(created)})
}

// Update handles PUT /v1/reservations/:id.  Guards re-run against the
// merged state, excluding the reservation's own stored row.
func (h *ReservationHandler) Update(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	updated, err := h.Engine.Update(ctx, id, req.toCandidate(callerID))
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toReservationResp(updated)})
}

// Delete handles DELETE /v1/reservations/:id and publishes a
// cancellation event for the removed booking.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Engine.Delete(ctx, id)
	if err != nil {
		return writeBookingErr(c, err)
	}
	h.publishCancelled(deleted)
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Engine.Get(ctx, id)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toReservationResp(r)})
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.ListAll(ctx)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs)})
}

// ListByRestaurant handles GET /v1/restaurants/:id/reservations.
func (h *ReservationHandler) ListByRestaurant(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.ListByRestaurant(ctx, id)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs)})
}

// ListByDateRange handles GET /v1/reservations/date-range?start=&end=.
// Bounds accept RFC 3339 or a bare date; a bare end date extends to the
// end of that day so the range stays inclusive.
func (h *ReservationHandler) ListByDateRange(c echo.Context) error {
	start, okStart := parseDateParam(c.QueryParam("start"), false)
	end, okEnd := parseDateParam(c.QueryParam("end"), true)
	if !okStart || !okEnd || end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.ListByDateRange(ctx, start, end)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs)})
}

// ListByRoom handles GET /v1/reservations/room/:roomNumber.
func (h *ReservationHandler) ListByRoom(c echo.Context) error {
	room := strings.TrimSpace(c.Param("roomNumber"))
	if room == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room number"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.ListByRoomNumber(ctx, room)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs)})
}

// Search handles GET /v1/reservations/search?q=&limit=.  Matches guest
// names, room numbers and restaurant names, case-insensitively.
func (h *ReservationHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.Search(ctx, q, limit)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs)})
}

// ListRecent handles GET /v1/restaurants/:id/reservations/recent?page=&size=.
func (h *ReservationHandler) ListRecent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rs, err := h.Engine.ListRecent(ctx, id, page, size)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": respList(rs), "page": page})
}

// Stats handles GET /v1/restaurants/:id/reservations/stats.  Every
// status appears in the response, zero-filled when unused.
func (h *ReservationHandler) Stats(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	counts, err := h.Engine.Stats(ctx, id)
	if err != nil {
		return writeBookingErr(c, err)
	}
	out := make(map[string]int, len(counts))
	for st, n := range counts {
		out[string(st)] = n
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurant_id": id, "counts": out})
}

// Count handles GET /v1/restaurants/:id/reservations/count.  It
// returns the restaurant's all-time reservation total across every
// status.
func (h *ReservationHandler) Count(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	total, err := h.Engine.CountByRestaurant(ctx, id)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurant_id": id, "total": total})
}

// MealDeducted handles GET /v1/rooms/:roomNumber/meal-deducted.  It
// reports whether the room's included meal is already claimed.
func (h *ReservationHandler) MealDeducted(c echo.Context) error {
	room := strings.TrimSpace(c.Param("roomNumber"))
	if room == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room number"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deducted, err := h.Engine.HasMealBeenDeducted(ctx, room)
	if err != nil {
		return writeBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_number": room, "meal_deducted": deducted})
}

// parseDateParam accepts RFC 3339 or a bare YYYY-MM-DD date.  Bare end
// dates are pushed to the last instant of the day.
func parseDateParam(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.UTC(), true
}
