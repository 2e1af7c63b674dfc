package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// ReservationRepo provides persistence for dining reservations.  It
// carries the occupancy and meal-deduction queries the admission
// engine decides on, plus the listing queries behind the read
// endpoints.  All timestamps are stored in UTC.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationCols = "id,user_id,restaurant_id,reservation_date,guest_name,room_number,is_hotel_guest,meal_deducted,guest_count,reservation_status,created_at,updated_at"

func scanReservation(row interface {
	Scan(dest ...interface{}) error
}) (model.Reservation, error) {
	var res model.Reservation
	var room sql.NullString
	err := row.Scan(&res.ID, &res.UserID, &res.RestaurantID, &res.ReservationDate,
		&res.GuestName, &room, &res.IsHotelGuest, &res.MealDeducted,
		&res.GuestCount, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	if room.Valid {
		res.RoomNumber = room.String
	}
	return res, nil
}

// GetByID fetches a reservation by id.  Returns sql.ErrNoRows when
// absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+reservationCols+" FROM reservations WHERE id=? LIMIT 1", id)
	return scanReservation(row)
}

// Save inserts the reservation when its ID is zero and overwrites the
// existing row otherwise.  The stored row is queried back so the
// caller sees generated identifiers and timestamps.
func (r *ReservationRepo) Save(ctx context.Context, res *model.Reservation) (model.Reservation, error) {
	if res.ID == 0 {
		out, err := r.DB.ExecContext(ctx,
			`INSERT INTO reservations (user_id, restaurant_id, reservation_date, guest_name, room_number, is_hotel_guest, meal_deducted, guest_count, reservation_status)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			res.UserID, res.RestaurantID, res.ReservationDate.UTC(), res.GuestName, nullableRoom(res.RoomNumber),
			res.IsHotelGuest, res.MealDeducted, res.GuestCount, res.Status)
		if err != nil {
			return model.Reservation{}, err
		}
		id, err := out.LastInsertId()
		if err != nil {
			return model.Reservation{}, err
		}
		return r.GetByID(ctx, uint64(id))
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE reservations SET reservation_date=?, guest_name=?, room_number=?, is_hotel_guest=?, meal_deducted=?, guest_count=?, reservation_status=?
		 WHERE id=?`,
		res.ReservationDate.UTC(), res.GuestName, nullableRoom(res.RoomNumber),
		res.IsHotelGuest, res.MealDeducted, res.GuestCount, res.Status, res.ID)
	if err != nil {
		return model.Reservation{}, err
	}
	return r.GetByID(ctx, res.ID)
}

func nullableRoom(room string) interface{} {
	room = strings.TrimSpace(room)
	if room == "" {
		return nil
	}
	return room
}

// Delete removes a reservation row.  Returns sql.ErrNoRows when
// absent.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	return noRowsAsErr(res)
}

// SumGuestCountInWindow sums guest_count over reservations of the
// restaurant dated inside [start, end] whose status is one of
// statuses.  When excludeID is non-zero that row is left out so an
// updated reservation never counts against itself.
func (r *ReservationRepo) SumGuestCountInWindow(ctx context.Context, restaurantID uint64, start, end time.Time, statuses []model.ReservationStatus, excludeID uint64) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	query := `SELECT COALESCE(SUM(guest_count),0) FROM reservations
	          WHERE restaurant_id=? AND reservation_date BETWEEN ? AND ?
	          AND reservation_status IN (` + placeholders(len(statuses)) + `)`
	args := []interface{}{restaurantID, start.UTC(), end.UTC()}
	for _, st := range statuses {
		args = append(args, st)
	}
	if excludeID != 0 {
		query += " AND id<>?"
		args = append(args, excludeID)
	}
	var total int
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

// ExistsActiveMealDeduction reports whether any reservation for the
// room has meal_deducted set, ignoring excludeID when non-zero.
func (r *ReservationRepo) ExistsActiveMealDeduction(ctx context.Context, roomNumber string, excludeID uint64) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM reservations WHERE room_number=? AND meal_deducted=1"
	args := []interface{}{roomNumber}
	if excludeID != 0 {
		query += " AND id<>?"
		args = append(args, excludeID)
	}
	query += ")"
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&exists)
	return exists, err
}

// List returns every reservation, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, "SELECT "+reservationCols+" FROM reservations ORDER BY reservation_date DESC")
}

// ListByRestaurant returns a restaurant's reservations, newest first.
func (r *ReservationRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE restaurant_id=? ORDER BY reservation_date DESC", restaurantID)
}

// ListByDateRange returns reservations dated inside [start, end].
func (r *ReservationRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE reservation_date BETWEEN ? AND ? ORDER BY reservation_date",
		start.UTC(), end.UTC())
}

// ListByRoomNumber returns reservations referencing a hotel room.
func (r *ReservationRepo) ListByRoomNumber(ctx context.Context, roomNumber string) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE room_number=? ORDER BY reservation_date DESC", roomNumber)
}

// ListRecentByRestaurant returns one page of a restaurant's
// reservations ordered by date descending.  Page is zero-based.
func (r *ReservationRepo) ListRecentByRestaurant(ctx context.Context, restaurantID uint64, page, size int) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE restaurant_id=? ORDER BY reservation_date DESC LIMIT ? OFFSET ?",
		restaurantID, size, page*size)
}

// Search matches reservations whose guest name, room number or
// restaurant name contains term (already lower-cased by the caller).
func (r *ReservationRepo) Search(ctx context.Context, term string, limit int) ([]model.Reservation, error) {
	pattern := "%" + term + "%"
	return r.list(ctx,
		`SELECT `+prefixedReservationCols("res")+` FROM reservations res
		 JOIN restaurants rest ON rest.id = res.restaurant_id
		 WHERE LOWER(res.guest_name) LIKE ? OR LOWER(res.room_number) LIKE ? OR LOWER(rest.name) LIKE ?
		 ORDER BY res.reservation_date DESC LIMIT ?`,
		pattern, pattern, pattern, limit)
}

// CountByStatus aggregates a restaurant's reservations per status.
func (r *ReservationRepo) CountByStatus(ctx context.Context, restaurantID uint64) (map[model.ReservationStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT reservation_status, COUNT(*) FROM reservations WHERE restaurant_id=? GROUP BY reservation_status",
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.ReservationStatus]int)
	for rows.Next() {
		var st model.ReservationStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// CountByRestaurant returns the total number of reservations held by
// one restaurant.
func (r *ReservationRepo) CountByRestaurant(ctx context.Context, restaurantID uint64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE restaurant_id=?", restaurantID).Scan(&n)
	return n, err
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func prefixedReservationCols(alias string) string {
	cols := strings.Split(reservationCols, ",")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ",")
}
