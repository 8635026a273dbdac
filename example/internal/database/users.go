package database

import (
	"context"
)

// User represents a user in the database
type User struct {
	ID    int    `db:"id"    json:"id"`
	Name  string `db:"name"  json:"name"`
	Email string `db:"email" json:"email"`
}

// CreateTable creates the users table if it doesn't exist
func (db *DB) CreateTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100),
			email VARCHAR(100) UNIQUE
		)
	`)
	return err
}

// ListUsers returns up to limit users.
func (db *DB) ListUsers(ctx context.Context, limit int) ([]User, error) {
	users := []User{}
	err := db.SelectContext(ctx, &users, "SELECT id, name, email FROM users ORDER BY id LIMIT $1", limit)
	return users, err
}

// GetUser returns the user with id.
func (db *DB) GetUser(ctx context.Context, id int) (User, error) {
	var user User
	err := db.GetContext(ctx, &user, "SELECT id, name, email FROM users WHERE id = $1", id)
	return user, err
}

// CreateUser inserts user in a transaction and returns it with its ID.
func (db *DB) CreateUser(ctx context.Context, user User) (_ User, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.NamedExecContext(ctx,
		"INSERT INTO users (name, email) VALUES (:name, :email) ON CONFLICT (email) DO NOTHING",
		user,
	)
	if err != nil {
		return User{}, err
	}

	var created User
	err = tx.GetContext(ctx, &created, "SELECT id, name, email FROM users WHERE email = $1", user.Email)
	if err != nil {
		return User{}, err
	}

	return created, tx.Commit()
}
