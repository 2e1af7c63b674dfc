package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mateohysa/aiora-reservations/internal/model"
	"github.com/mateohysa/aiora-reservations/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

// Create inserts a user and returns its ID.  Username uniqueness is
// enforced by the database; duplicate key errors surface as
// ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, username, password, firstName, lastName string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, first_name, last_name) VALUES (?,?,?,?)",
		username, hash, firstName, lastName)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,first_name,last_name,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,first_name,last_name,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,password_hash,first_name,last_name,created_at,updated_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update overwrites name fields and, when password is non-empty,
// rehashes and replaces the credential.  Existence is checked by the
// caller; a no-op update (identical values) is not an error.
func (r *UserRepo) Update(ctx context.Context, id uint64, firstName, lastName, password string, cost int) error {
	if password != "" {
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return err
		}
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET first_name=?, last_name=?, password_hash=? WHERE id=?",
			firstName, lastName, hash, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=? WHERE id=?",
		firstName, lastName, id)
	return err
}

// Delete removes a user row.  Returns sql.ErrNoRows when absent.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return noRowsAsErr(res)
}

// noRowsAsErr maps a zero-row result to sql.ErrNoRows so callers can
// treat missing targets uniformly with point lookups.
func noRowsAsErr(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
