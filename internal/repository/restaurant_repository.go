package repository

import (
	"context"
	"database/sql"

	"github.com/mateohysa/aiora-reservations/internal/model"
)

// RestaurantRepo provides CRUD operations for dining venues.  All
// timestamp columns are stored in UTC.
type RestaurantRepo struct{ DB *sql.DB }

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{DB: db} }

const restaurantCols = "id,name,restaurant_type,location,description,default_capacity,max_capacity,accepts_outside_guests,room_only,created_at,updated_at"

func scanRestaurant(row interface {
	Scan(dest ...interface{}) error
}) (model.Restaurant, error) {
	var rest model.Restaurant
	var desc sql.NullString
	err := row.Scan(&rest.ID, &rest.Name, &rest.Type, &rest.Location, &desc,
		&rest.DefaultCapacity, &rest.MaxCapacity, &rest.AcceptsOutsideGuests, &rest.RoomOnly,
		&rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		return rest, err
	}
	if desc.Valid {
		d := desc.String
		rest.Description = &d
	}
	return rest, nil
}

// Create inserts a restaurant and returns the stored row with its
// generated ID and timestamps populated.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) (model.Restaurant, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO restaurants (name, restaurant_type, location, description, default_capacity, max_capacity, accepts_outside_guests, room_only)
		 VALUES (?,?,?,?,?,?,?,?)`,
		rest.Name, rest.Type, rest.Location, rest.Description,
		rest.DefaultCapacity, rest.MaxCapacity, rest.AcceptsOutsideGuests, rest.RoomOnly)
	if err != nil {
		return model.Restaurant{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Restaurant{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a restaurant by id.  Returns sql.ErrNoRows when
// absent.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+restaurantCols+" FROM restaurants WHERE id=? LIMIT 1", id)
	return scanRestaurant(row)
}

// List returns all restaurants ordered by name.
func (r *RestaurantRepo) List(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, "SELECT "+restaurantCols+" FROM restaurants ORDER BY name")
}

// ListByMinCapacity returns restaurants whose enforced ceiling is at
// least minCapacity, largest first.
func (r *RestaurantRepo) ListByMinCapacity(ctx context.Context, minCapacity int) ([]model.Restaurant, error) {
	return r.list(ctx,
		"SELECT "+restaurantCols+" FROM restaurants WHERE max_capacity>=? ORDER BY max_capacity DESC", minCapacity)
}

func (r *RestaurantRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Restaurant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restaurant, 0)
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// Update overwrites every mutable column.  Existence is checked by
// the caller.
func (r *RestaurantRepo) Update(ctx context.Context, id uint64, rest *model.Restaurant) (model.Restaurant, error) {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE restaurants SET name=?, restaurant_type=?, location=?, description=?, default_capacity=?, max_capacity=?, accepts_outside_guests=?, room_only=?
		 WHERE id=?`,
		rest.Name, rest.Type, rest.Location, rest.Description,
		rest.DefaultCapacity, rest.MaxCapacity, rest.AcceptsOutsideGuests, rest.RoomOnly, id)
	if err != nil {
		return model.Restaurant{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a restaurant row.  Returns sql.ErrNoRows when absent.
func (r *RestaurantRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM restaurants WHERE id=?", id)
	if err != nil {
		return err
	}
	return noRowsAsErr(res)
}
