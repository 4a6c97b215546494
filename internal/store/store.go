// Package store persists NewsPulse users, chat history, search logs, saved
// articles and generated digests in SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newspulse/pkg/storage"
)

var (
	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidArticle is returned when a saved article lacks a title or URL.
	ErrInvalidArticle = errors.New("article must include title and url")
)

// Schema is the SQLite schema for NewsPulse.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    preferences   TEXT NOT NULL DEFAULT '[]',
    created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chats (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    question   TEXT NOT NULL,
    answer     TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS search_logs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT NOT NULL DEFAULT '',
    query      TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS saved_articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_email   TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    image        TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL DEFAULT '',
    saved_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS digests (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    email        TEXT NOT NULL,
    content      TEXT NOT NULL,
    generated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_email ON chats(email, session_id);
CREATE INDEX IF NOT EXISTS idx_search_logs_email ON search_logs(email);
CREATE INDEX IF NOT EXISTS idx_saved_articles_email ON saved_articles(user_email);
CREATE INDEX IF NOT EXISTS idx_digests_email ON digests(email);
`

// Store provides NewsPulse data persistence.
type Store struct {
	db  *storage.DB
	now func() time.Time
}

// New wraps db and applies the schema.
func New(ctx context.Context, db *storage.DB) (*Store, error) {
	if err := db.Migrate(ctx, Schema); err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Open opens the SQLite database at path and returns a ready Store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := storage.Open(storage.Config{DSN: path})
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
