package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// User is a registered reader.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Preferences  []string  `json:"preferences"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser inserts a new user with no preferences.
func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, preferences, created_at) VALUES (?, ?, ?, '[]', ?)`,
		normalizeEmail(email), name, passwordHash, s.timestamp())
	if isUniqueViolation(err) {
		return 0, ErrUserExists
	}
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// GetUserByEmail finds a user by email. It returns nil, nil when absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, preferences, created_at FROM users WHERE email = ?`,
		normalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdatePreferences replaces a user's topic preferences. It reports whether
// a user was updated.
func (s *Store) UpdatePreferences(ctx context.Context, email string, prefs []string) (bool, error) {
	if prefs == nil {
		prefs = []string{}
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return false, fmt.Errorf("encode preferences: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET preferences = ? WHERE email = ?`, string(raw), normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("update preferences: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListUsers returns every user in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, password_hash, preferences, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*User, error) {
	var (
		u     User
		prefs string
	)
	if err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &prefs, &u.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil || u.Preferences == nil {
		u.Preferences = []string{}
	}
	return &u, nil
}
